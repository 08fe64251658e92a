package auction

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/royalty"
)

type ClaimRequest struct {
	Auction            solana.PublicKey
	Claimer            solana.PublicKey
	WinnerAssetAccount solana.PublicKey
	SellerAccount      solana.PublicKey
	Metadata           solana.PublicKey
	// RoyaltyAccounts lists one settlement account per metadata creator, in
	// creator order.
	RoyaltyAccounts []solana.PublicKey
}

// RoyaltyPayment is the outcome for one creator.
type RoyaltyPayment struct {
	Creator solana.PublicKey
	Account solana.PublicKey
	Share   uint8
	Amount  uint64
	Paid    bool
}

type ClaimReceipt struct {
	Auction      solana.PublicKey
	Record       common.AuctionRecord
	Claimer      solana.PublicKey
	Distribution *royalty.Distribution
	Royalties    []RoyaltyPayment

	RoyaltiesPaid uint64
	// Skipped is the royalty owed to creators whose account did not match.
	Skipped uint64
	// Residual is what was left in the vault after every payment and went
	// to the claimer: skipped royalties plus rounding dust.
	Residual uint64

	Entries []custody.Entry
}

// Distributed is the part of the winning bid paid to creators, the
// platform and the seller.
func (r *ClaimReceipt) Distributed() uint64 {
	return r.RoyaltiesPaid + r.Distribution.PlatformFee + r.Distribution.SellerProceeds
}

// Claim settles an ended auction: royalties, platform fee and seller
// proceeds out of the vault, the asset to the winner, every escrow closed.
func (e *Engine) Claim(env Env, req ClaimRequest) (*ClaimReceipt, error) {
	rec, err := e.load(env, req.Auction)
	if err != nil {
		return nil, err
	}
	mark := len(env.Ledger.Entries())

	if req.Claimer != rec.Bidder && req.Claimer != rec.Seller {
		return nil, xerrors.Errorf("claimer %v: %w", req.Claimer, common.ErrInvalidClaimer)
	}
	if env.Now < rec.EndTime {
		return nil, xerrors.Errorf("now %d before end time %d: %w", env.Now, rec.EndTime, common.ErrNotEndedAuction)
	}

	if !rec.HasBid() {
		return nil, xerrors.Errorf("auction has no bidder: %w", common.ErrInvalidWinner)
	}
	winner, err := env.Ledger.Account(req.WinnerAssetAccount)
	if err != nil {
		return nil, xerrors.Errorf("winner account %v: %v: %w", req.WinnerAssetAccount, err, common.ErrInvalidWinner)
	}
	if winner.Owner != rec.Bidder || winner.Mint != rec.NftMint {
		return nil, xerrors.Errorf("winner account %v owned by %v: %w", req.WinnerAssetAccount, winner.Owner, common.ErrInvalidWinner)
	}

	seller, err := env.Ledger.Account(req.SellerAccount)
	if err != nil {
		return nil, xerrors.Errorf("seller account %v: %v: %w", req.SellerAccount, err, common.ErrInvalidSeller)
	}
	if seller.Owner != rec.Seller || seller.Mint != e.platform.SettlementMint {
		return nil, xerrors.Errorf("seller account %v owned by %v: %w", req.SellerAccount, seller.Owner, common.ErrInvalidSeller)
	}

	md, collection, err := resolveCollection(env, req.Metadata, rec.NftMint)
	if err != nil {
		return nil, err
	}
	if collection != rec.NftCollection {
		// settle anyway; refusing here would strand the escrow
		log.Warnw("collection changed since creation", "auction", req.Auction, "stored", rec.NftCollection, "resolved", collection)
	}
	if md.Creators == nil {
		return nil, xerrors.Errorf("asset %v has no creators: %w", rec.NftMint, common.ErrMetadataCreatorParseError)
	}
	if len(md.Creators) != len(req.RoyaltyAccounts) {
		return nil, xerrors.Errorf("%d creators, %d royalty accounts: %w", len(md.Creators), len(req.RoyaltyAccounts), common.ErrAccountCountMismatch)
	}

	shares := make([]uint8, len(md.Creators))
	for i, c := range md.Creators {
		shares[i] = c.Share
	}
	dist, err := royalty.Distribute(rec.CurrentBid, md.SellerFeeBasisPoints, e.params.FeePercent, e.params.Permyriad, shares)
	if err != nil {
		return nil, err
	}

	vault, err := e.platform.VaultAddress(req.Auction)
	if err != nil {
		return nil, err
	}
	receipt := &ClaimReceipt{
		Auction:      req.Auction,
		Record:       *rec,
		Claimer:      req.Claimer,
		Distribution: dist,
		Royalties:    make([]RoyaltyPayment, len(md.Creators)),
	}

	for i, c := range md.Creators {
		p := RoyaltyPayment{Creator: c.Address, Account: req.RoyaltyAccounts[i], Share: c.Share, Amount: dist.Shares[i]}
		expected, err := custody.AssociatedAddress(c.Address, e.platform.SettlementMint)
		if err != nil {
			return nil, err
		}
		if expected == p.Account && c.Share != 0 {
			if err := env.Ledger.MoveUnits(vault, p.Account, e.platform.Authority, p.Amount); err != nil {
				return nil, xerrors.Errorf("royalty to %v: %w", c.Address, err)
			}
			p.Paid = true
			receipt.RoyaltiesPaid += p.Amount
		} else {
			log.Debugw("royalty skipped", "auction", req.Auction, "creator", c.Address, "account", p.Account, "share", c.Share)
			receipt.Skipped += p.Amount
		}
		receipt.Royalties[i] = p
	}

	if err := env.Ledger.MoveUnits(vault, e.platform.Treasury, e.platform.Authority, dist.PlatformFee); err != nil {
		return nil, xerrors.Errorf("platform fee: %w", err)
	}
	if err := env.Ledger.MoveUnits(vault, req.SellerAccount, e.platform.Authority, dist.SellerProceeds); err != nil {
		return nil, xerrors.Errorf("seller proceeds: %w", err)
	}

	left, err := env.Ledger.Account(vault)
	if err != nil {
		return nil, xerrors.Errorf("vault %v: %w", vault, err)
	}
	receipt.Residual = left.Amount
	if err := e.closeEscrow(env, vault, req.Claimer); err != nil {
		return nil, err
	}

	custodyAddr, err := e.platform.CustodyAddress(rec.NftMint)
	if err != nil {
		return nil, err
	}
	if err := env.Ledger.MoveAsset(custodyAddr, req.WinnerAssetAccount, e.platform.Authority); err != nil {
		return nil, xerrors.Errorf("deliver asset: %w", err)
	}
	if err := e.closeEscrow(env, custodyAddr, req.Claimer); err != nil {
		return nil, err
	}
	if err := e.destroy(env, req.Auction, req.Claimer); err != nil {
		return nil, err
	}

	receipt.Entries = env.Ledger.Entries()[mark:]
	log.Infow("auction claimed", "auction", req.Auction, "claimer", req.Claimer, "winner", rec.Bidder, "bid", rec.CurrentBid,
		"royalties", receipt.RoyaltiesPaid, "fee", dist.PlatformFee, "proceeds", dist.SellerProceeds, "residual", receipt.Residual)
	return receipt, nil
}
