package initdb

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-redis/redis/v8"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
	"gorm.io/gorm"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/dao"
	"github.com/rqzrqh/nft_auction/model"
)

var log = logging.Logger("initdb")

var ErrInitialized = xerrors.New("database has been initialized")

// InitDatabase creates the tables, writes the administrator identity and
// opens the platform treasury account. rds may be nil.
func InitDatabase(ctx context.Context, db *gorm.DB, rds *redis.Client, admin solana.PublicKey, platform auction.Platform, accountRent uint64) error {

	if checkExist(db) {
		return ErrInitialized
	}

	if err := createTables(db); err != nil {
		return err
	}

	if err := fillTables(ctx, db, admin, platform, accountRent); err != nil {
		return err
	}

	if err := checkDB(db, admin); err != nil {
		return err
	}

	if rds != nil {
		if err := initCache(ctx, db, rds); err != nil {
			return err
		}
	}

	return nil
}

func checkExist(db *gorm.DB) bool {
	return db.Migrator().HasTable(&model.GlobalConfig{})
}

func createTables(db *gorm.DB) error {

	startTime := time.Now()
	defer func() {
		log.Infow("createTables", "duration", time.Since(startTime).String())
	}()

	return db.AutoMigrate(model.Tables()...)
}

func fillTables(ctx context.Context, db *gorm.DB, admin solana.PublicKey, platform auction.Platform, accountRent uint64) error {
	if err := dao.InitGlobalConfig(db.WithContext(ctx), admin); err != nil {
		return err
	}

	// the treasury receives fees at every claim, so it must exist up front
	treasury, err := dao.NewDao(db, accountRent).Fund(ctx, platform.TreasuryWallet, platform.SettlementMint, 0, 0)
	if err != nil {
		return err
	}
	if treasury != platform.Treasury {
		return xerrors.Errorf("treasury account %v, expected %v", treasury, platform.Treasury)
	}
	log.Infow("treasury opened", "wallet", platform.TreasuryWallet, "account", treasury)
	return nil
}

func checkDB(db *gorm.DB, admin solana.PublicKey) error {
	global, err := dao.GetGlobalConfig(db)
	if err != nil {
		return err
	}
	if global.SuperAdmin != admin {
		return xerrors.Errorf("super admin %v, expected %v", global.SuperAdmin, admin)
	}
	log.Infow("global config", "super_admin", global.SuperAdmin)
	return nil
}

func initCache(ctx context.Context, db *gorm.DB, rds *redis.Client) error {
	_, err := dao.NewCache(rds).WarmCache(ctx, db)
	return err
}
