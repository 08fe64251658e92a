package main

import (
	"os"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

var (
	log = logging.Logger("nft_auction")
)

func main() {
	if err := logging.SetLogLevel("*", "info"); err != nil {
		log.Fatal(err)
	}
	app := &cli.App{
		Name:    "nft_auction",
		Usage:   "escrow auction settlement engine",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path of the TOML config file",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "root:123456@tcp(127.0.0.1:3306)/nft_auction, overrides the config",
			},
			&cli.StringFlag{
				Name:  "redis",
				Usage: "127.0.0.1:6379, overrides the config",
			},
			&cli.StringFlag{
				Name:  "wallet",
				Usage: "base58 identity of the caller",
			},
			&cli.StringFlag{
				Name:        "log-level",
				Value:       "info",
				DefaultText: "info",
			},
		},
		Before: func(cctx *cli.Context) error {
			return logging.SetLogLevel("*", cctx.String("log-level"))
		},
		Commands: []*cli.Command{
			cmdInitDb,
			cmdCreateAuction,
			cmdCancelAuction,
			cmdPlaceBid,
			cmdClaimAuction,
			cmdGetAuctionInfo,
			cmdFund,
			cmdRegisterMetadata,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
