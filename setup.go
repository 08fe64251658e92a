package main

import (
	"context"
	syslog "log"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-redis/redis/v8"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/config"
	"github.com/rqzrqh/nft_auction/dao"
	"github.com/rqzrqh/nft_auction/host"
)

func loadConfig(cctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return nil, err
	}
	if dsn := cctx.String("db"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if addr := cctx.String("redis"); addr != "" {
		cfg.Redis.Addr = addr
	}
	return cfg, nil
}

func openDB(dsn string) (*gorm.DB, error) {
	newLogger := logger.New(
		syslog.New(os.Stdout, "\r\n", syslog.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, xerrors.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Debug("sql ping success")
	return db, nil
}

// openRedis returns nil when no redis address is configured.
func openRedis(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rds := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pong, err := rds.Ping(ctx).Result()
	if err != nil {
		rds.Close()
		return nil, err
	}
	log.Debug("redis response ", pong)
	return rds, nil
}

type session struct {
	*host.Host
	cfg      *config.Config
	platform auction.Platform
	db       *gorm.DB
	rds      *redis.Client
	dao      *dao.Dao
	cache    *dao.Cache
}

func (s *session) Close() {
	if s.rds != nil {
		s.rds.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// newSession connects the stores and builds a host over the database
// backend, with the redis cache as observer when configured.
func newSession(ctx context.Context, cctx *cli.Context) (*session, error) {
	cfg, err := loadConfig(cctx)
	if err != nil {
		return nil, err
	}
	params, err := cfg.EngineParams()
	if err != nil {
		return nil, err
	}
	platform, err := cfg.EnginePlatform()
	if err != nil {
		return nil, err
	}

	db, err := openDB(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	global, err := dao.GetGlobalConfig(db.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	engine, err := auction.NewEngine(params, global, platform)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, platform: platform, db: db, dao: dao.NewDao(db, params.AccountRent)}
	var observers []host.Observer
	if s.rds, err = openRedis(ctx, cfg.Redis); err != nil {
		// the database is authoritative, carry on without the cache
		log.Warnw("redis unavailable", "addr", cfg.Redis.Addr, "err", err)
	} else if s.rds != nil {
		s.cache = dao.NewCache(s.rds)
		observers = append(observers, s.cache)
	}
	s.Host = host.New(engine, s.dao, host.SystemClock{}, observers...)
	return s, nil
}

func walletFlag(cctx *cli.Context) (solana.PublicKey, error) {
	return keyFlag(cctx, "wallet")
}

func keyFlag(cctx *cli.Context, name string) (solana.PublicKey, error) {
	s := cctx.String(name)
	if s == "" {
		return solana.PublicKey{}, xerrors.Errorf("--%s is required", name)
	}
	k, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, xerrors.Errorf("--%s: %w", name, err)
	}
	return k, nil
}
