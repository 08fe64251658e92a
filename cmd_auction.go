package main

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/dao"
	"github.com/rqzrqh/nft_auction/host"
	"github.com/rqzrqh/nft_auction/oracle"
	"github.com/rqzrqh/nft_auction/util"
)

var auctionFlag = &cli.StringFlag{
	Name:  "auction",
	Usage: "base58 auction address",
}

var cmdCreateAuction = &cli.Command{
	Name:  "create-auction",
	Usage: "List an asset held by --wallet",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "mint",
			Usage: "base58 asset mint",
		},
		&cli.StringFlag{
			Name:  "start-price",
			Usage: "minimum first bid in tokens, e.g. 1.5",
		},
		&cli.DurationFlag{
			Name:  "duration",
			Value: common.Day,
		},
		&cli.StringFlag{
			Name:  "seed",
			Usage: "seed of the auction address, random when empty",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		seller, err := walletFlag(cctx)
		if err != nil {
			return err
		}
		mint, err := keyFlag(cctx, "mint")
		if err != nil {
			return err
		}

		s, err := newSession(ctx, cctx)
		if err != nil {
			return err
		}
		defer s.Close()

		startPrice, err := util.ParseAmount(cctx.String("start-price"), s.cfg.Platform.Decimals)
		if err != nil {
			return err
		}
		seed := cctx.String("seed")
		if seed == "" {
			// CreateWithSeed takes at most 32 bytes
			seed = uuid.New().String()[:32]
		}
		auctionAddr, err := solana.CreateWithSeed(seller, seed, s.platform.ProgramID)
		if err != nil {
			return err
		}
		holding, err := custody.AssociatedAddress(seller, mint)
		if err != nil {
			return err
		}
		metadata, err := oracle.MetadataAddress(mint)
		if err != nil {
			return err
		}

		rec, err := s.CreateAuction(ctx, auction.CreateRequest{
			Auction:            auctionAddr,
			Seller:             seller,
			SellerAssetAccount: holding,
			Mint:               mint,
			Metadata:           metadata,
			StartPrice:         startPrice,
			Duration:           cctx.Duration("duration"),
		})
		if err != nil {
			return err
		}
		fmt.Println(auctionAddr)
		log.Infow("auction created", "auction", auctionAddr, "seed", seed, "end_time", rec.EndTime)
		return nil
	},
}

var cmdCancelAuction = &cli.Command{
	Name:  "cancel-auction",
	Usage: "Withdraw an auction without bids",
	Flags: []cli.Flag{auctionFlag},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		seller, err := walletFlag(cctx)
		if err != nil {
			return err
		}
		auctionAddr, err := keyFlag(cctx, "auction")
		if err != nil {
			return err
		}

		s, err := newSession(ctx, cctx)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.Auction(ctx, auctionAddr)
		if err != nil {
			return err
		}
		holding, err := custody.AssociatedAddress(seller, rec.NftMint)
		if err != nil {
			return err
		}
		if _, err := s.OpenAccounts(ctx, seller, host.AccountSpec{Owner: seller, Mint: rec.NftMint}); err != nil {
			return err
		}
		return s.CancelAuction(ctx, auction.CancelRequest{
			Auction:            auctionAddr,
			Seller:             seller,
			SellerAssetAccount: holding,
		})
	},
}

var cmdPlaceBid = &cli.Command{
	Name:  "place-bid",
	Usage: "Bid on an auction from the settlement account of --wallet",
	Flags: []cli.Flag{
		auctionFlag,
		&cli.StringFlag{
			Name:  "bid",
			Usage: "bid in tokens, e.g. 12.5",
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		bidder, err := walletFlag(cctx)
		if err != nil {
			return err
		}
		auctionAddr, err := keyFlag(cctx, "auction")
		if err != nil {
			return err
		}

		s, err := newSession(ctx, cctx)
		if err != nil {
			return err
		}
		defer s.Close()

		amount, err := util.ParseAmount(cctx.String("bid"), s.cfg.Platform.Decimals)
		if err != nil {
			return err
		}
		rec, err := s.Auction(ctx, auctionAddr)
		if err != nil {
			return err
		}
		bidderAccount, err := custody.AssociatedAddress(bidder, s.platform.SettlementMint)
		if err != nil {
			return err
		}
		req := auction.BidRequest{
			Auction:       auctionAddr,
			Bidder:        bidder,
			BidderAccount: bidderAccount,
			Amount:        amount,
		}
		if rec.HasBid() {
			req.OutBidder = rec.Bidder
			if req.OutBidderAccount, err = custody.AssociatedAddress(rec.Bidder, s.platform.SettlementMint); err != nil {
				return err
			}
		}

		rec, err = s.PlaceBid(ctx, req)
		if err != nil {
			return err
		}
		log.Infow("bid placed", "auction", auctionAddr, "bid", util.FormatAmount(rec.CurrentBid, s.cfg.Platform.Decimals), "end_time", rec.EndTime)
		return nil
	},
}

var cmdClaimAuction = &cli.Command{
	Name:  "claim-auction",
	Usage: "Settle an ended auction, paid by --wallet",
	Flags: []cli.Flag{auctionFlag},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		claimer, err := walletFlag(cctx)
		if err != nil {
			return err
		}
		auctionAddr, err := keyFlag(cctx, "auction")
		if err != nil {
			return err
		}

		s, err := newSession(ctx, cctx)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, err := s.Auction(ctx, auctionAddr)
		if err != nil {
			return err
		}
		if !rec.HasBid() {
			return xerrors.Errorf("auction %v has no bid: %w", auctionAddr, common.ErrInvalidWinner)
		}
		md, err := dao.NewMetadataStore(s.db.WithContext(ctx)).Resolve(rec.NftMint)
		if err != nil {
			return err
		}

		mint := s.platform.SettlementMint
		specs := []host.AccountSpec{
			{Owner: rec.Bidder, Mint: rec.NftMint},
			{Owner: rec.Seller, Mint: mint},
		}
		for _, c := range md.Creators {
			specs = append(specs, host.AccountSpec{Owner: c.Address, Mint: mint})
		}
		accounts, err := s.OpenAccounts(ctx, claimer, specs...)
		if err != nil {
			return err
		}

		receipt, err := s.ClaimAuction(ctx, auction.ClaimRequest{
			Auction:            auctionAddr,
			Claimer:            claimer,
			WinnerAssetAccount: accounts[0],
			SellerAccount:      accounts[1],
			Metadata:           md.Address,
			RoyaltyAccounts:    accounts[2:],
		})
		if err != nil {
			return err
		}

		decimals := s.cfg.Platform.Decimals
		log.Infow("auction claimed",
			"auction", auctionAddr,
			"winner", rec.Bidder,
			"bid", util.FormatAmount(receipt.Record.CurrentBid, decimals),
			"royalties", util.FormatAmount(receipt.RoyaltiesPaid, decimals),
			"fee", util.FormatAmount(receipt.Distribution.PlatformFee, decimals),
			"proceeds", util.FormatAmount(receipt.Distribution.SellerProceeds, decimals),
			"residual", util.FormatAmount(receipt.Residual, decimals),
		)
		return nil
	},
}

type auctionInfo struct {
	Address       string `json:"address"`
	Seller        string `json:"seller"`
	NftMint       string `json:"nft_mint"`
	NftCollection string `json:"nft_collection"`
	Bidder        string `json:"bidder,omitempty"`
	CurrentBid    string `json:"current_bid"`
	StartPrice    string `json:"start_price"`
	EndTime       uint64 `json:"end_time"`
	Cached        bool   `json:"cached"`
}

var cmdGetAuctionInfo = &cli.Command{
	Name:  "get-auction-info",
	Usage: "Print an auction record",
	Flags: []cli.Flag{auctionFlag},
	Action: func(cctx *cli.Context) error {
		ctx := util.ReqContext(cctx)

		auctionAddr, err := keyFlag(cctx, "auction")
		if err != nil {
			return err
		}

		s, err := newSession(ctx, cctx)
		if err != nil {
			return err
		}
		defer s.Close()

		rec, cached, err := dao.LookupAuction(ctx, s.db, s.cache, auctionAddr)
		if err != nil {
			return err
		}

		decimals := s.cfg.Platform.Decimals
		info := auctionInfo{
			Address:       auctionAddr.String(),
			Seller:        rec.Seller.String(),
			NftMint:       rec.NftMint.String(),
			NftCollection: rec.NftCollection.String(),
			CurrentBid:    util.FormatAmount(rec.CurrentBid, decimals),
			StartPrice:    util.FormatAmount(rec.StartPrice, decimals),
			EndTime:       rec.EndTime,
			Cached:        cached,
		}
		if rec.HasBid() {
			info.Bidder = rec.Bidder.String()
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
