package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/dao"
	"github.com/rqzrqh/nft_auction/oracle"
	"github.com/rqzrqh/nft_auction/util"
)

var cmdFund = &cli.Command{
	Name:  "fund",
	Usage: "Credit tokens and lamports to --wallet on the database ledger",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mint",
			Usage: "base58 mint, the settlement mint when empty",
		},
		&cli.StringFlag{
			Name:  "amount",
			Value: "0",
			Usage: "tokens of the settlement mint, or raw units of any other mint",
		},
		&cli.Uint64Flag{
			Name:  "lamports",
			Usage: "native balance for rent",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		owner, err := walletFlag(cctx)
		if err != nil {
			return err
		}

		s, err := newSession(ctx, cctx)
		if err != nil {
			return err
		}
		defer s.Close()

		mint := s.platform.SettlementMint
		decimals := s.cfg.Platform.Decimals
		if cctx.String("mint") != "" {
			if mint, err = keyFlag(cctx, "mint"); err != nil {
				return err
			}
			if mint != s.platform.SettlementMint {
				decimals = 0
			}
		}
		units, err := util.ParseAmount(cctx.String("amount"), decimals)
		if err != nil {
			return err
		}

		addr, err := s.dao.Fund(ctx, owner, mint, units, cctx.Uint64("lamports"))
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	},
}

var cmdRegisterMetadata = &cli.Command{
	Name:  "register-metadata",
	Usage: "Write the registry record of an asset",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mint",
			Usage: "base58 asset mint",
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "base58 collection key",
		},
		&cli.BoolFlag{
			Name:  "collection-verified",
			Value: true,
		},
		&cli.UintFlag{
			Name:  "seller-fee-bps",
			Usage: "royalty in basis points",
		},
		&cli.StringSliceFlag{
			Name:  "creator",
			Usage: "<base58>:<share>, repeatable; omit for an asset without creators",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		mint, err := keyFlag(cctx, "mint")
		if err != nil {
			return err
		}
		bps := cctx.Uint("seller-fee-bps")
		if bps > 10000 {
			return xerrors.Errorf("seller fee %d bps over 10000", bps)
		}
		md := oracle.Metadata{
			Mint:                 mint,
			SellerFeeBasisPoints: uint16(bps),
		}
		if cctx.String("collection") != "" {
			key, err := keyFlag(cctx, "collection")
			if err != nil {
				return err
			}
			md.Collection = &oracle.Collection{Key: key, Verified: cctx.Bool("collection-verified")}
		}
		for _, s := range cctx.StringSlice("creator") {
			c, err := parseCreator(s)
			if err != nil {
				return err
			}
			md.Creators = append(md.Creators, c)
		}

		cfg, err := loadConfig(cctx)
		if err != nil {
			return err
		}
		db, err := openDB(cfg.Database.DSN)
		if err != nil {
			return err
		}
		stored, err := dao.NewMetadataStore(db.WithContext(ctx)).Put(md)
		if err != nil {
			return err
		}
		fmt.Println(stored.Address)
		return nil
	},
}

func parseCreator(s string) (oracle.Creator, error) {
	addr, share, ok := strings.Cut(s, ":")
	if !ok {
		return oracle.Creator{}, xerrors.Errorf("creator %q: expected <base58>:<share>", s)
	}
	key, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return oracle.Creator{}, xerrors.Errorf("creator %q: %w", s, err)
	}
	n, err := strconv.ParseUint(share, 10, 8)
	if err != nil {
		return oracle.Creator{}, xerrors.Errorf("creator %q share: %w", s, err)
	}
	return oracle.Creator{Address: key, Verified: true, Share: uint8(n)}, nil
}
