package auction

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
)

type CreateRequest struct {
	Auction            solana.PublicKey
	Seller             solana.PublicKey
	SellerAssetAccount solana.PublicKey
	Mint               solana.PublicKey
	// Metadata is the caller's claim of the registry record address of Mint.
	Metadata   solana.PublicKey
	StartPrice uint64
	Duration   time.Duration
}

// Create opens an auction on one asset unit and takes it into custody.
func (e *Engine) Create(env Env, req CreateRequest) (*common.AuctionRecord, error) {
	_, collection, err := resolveCollection(env, req.Metadata, req.Mint)
	if err != nil {
		return nil, err
	}

	if req.Duration < e.params.MinDuration || req.Duration > e.params.MaxDuration {
		return nil, xerrors.Errorf("duration %v outside [%v, %v]: %w", req.Duration, e.params.MinDuration, e.params.MaxDuration, common.ErrInvalidDuration)
	}
	if req.StartPrice < 1 {
		return nil, xerrors.Errorf("start price %d: %w", req.StartPrice, common.ErrInvalidBidFloor)
	}
	endTime, err := common.CheckedAdd(env.Now, common.Seconds(req.Duration))
	if err != nil {
		return nil, err
	}

	if err := env.Ledger.Debit(req.Seller, e.params.RecordRent); err != nil {
		return nil, xerrors.Errorf("record rent: %w", err)
	}
	if err := env.Records.Allocate(req.Auction, e.params.RecordRent); err != nil {
		return nil, err
	}

	custodyAddr, err := e.platform.CustodyAddress(req.Mint)
	if err != nil {
		return nil, err
	}
	created, err := env.Ledger.OpenAccount(custodyAddr, e.platform.Authority, req.Mint, req.Seller)
	if err != nil {
		return nil, xerrors.Errorf("open asset custody: %w", err)
	}
	if !created {
		// reused as is; any units already there leave with the asset
		if acct, err := env.Ledger.Account(custodyAddr); err == nil && acct.Amount > 0 {
			log.Warnw("asset custody account already holds units", "auction", req.Auction, "account", custodyAddr, "amount", acct.Amount)
		}
	}
	if err := env.Ledger.MoveAsset(req.SellerAssetAccount, custodyAddr, req.Seller); err != nil {
		return nil, xerrors.Errorf("escrow asset: %w", err)
	}

	rec := &common.AuctionRecord{
		Seller:        req.Seller,
		NftMint:       req.Mint,
		NftCollection: collection,
		StartPrice:    req.StartPrice,
		EndTime:       endTime,
	}
	if err := env.Records.Save(req.Auction, rec); err != nil {
		return nil, err
	}

	log.Infow("auction created", "auction", req.Auction, "seller", req.Seller, "mint", req.Mint, "collection", collection, "start_price", req.StartPrice, "end_time", endTime)
	return rec, nil
}
