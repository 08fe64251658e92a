package main

import (
	"github.com/urfave/cli/v2"

	"github.com/rqzrqh/nft_auction/initdb"
	"github.com/rqzrqh/nft_auction/util"
)

var cmdInitDb = &cli.Command{
	Name:  "initdb",
	Usage: "Create tables and write the global config",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "admin",
			Usage: "base58 identity of the super admin",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		admin, err := keyFlag(cctx, "admin")
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		params, err := cfg.EngineParams()
		if err != nil {
			return err
		}
		platform, err := cfg.EnginePlatform()
		if err != nil {
			return err
		}

		db, err := openDB(cfg.Database.DSN)
		if err != nil {
			return err
		}
		rds, err := openRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		if rds != nil {
			defer rds.Close()
		}

		if err := initdb.InitDatabase(ctx, db, rds, admin, platform, params.AccountRent); err != nil {
			return err
		}
		log.Infow("database initialized", "super_admin", admin, "authority", platform.Authority, "treasury", platform.Treasury)
		return nil
	},
}
