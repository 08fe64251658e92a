package auction

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
)

type BidRequest struct {
	Auction       solana.PublicKey
	Bidder        solana.PublicKey
	BidderAccount solana.PublicKey
	// OutBidder and OutBidderAccount name the bidder being replaced and the
	// account their escrow is refunded to. Ignored on the first bid.
	OutBidder        solana.PublicKey
	OutBidderAccount solana.PublicKey
	Amount           uint64
}

// Bid replaces the highest bid, refunding the previous bidder in full.
func (e *Engine) Bid(env Env, req BidRequest) (*common.AuctionRecord, error) {
	if req.Bidder.IsZero() {
		return nil, xerrors.New("bidder identity is empty")
	}
	rec, err := e.load(env, req.Auction)
	if err != nil {
		return nil, err
	}

	if rec.CurrentBid == 0 && req.Amount < rec.StartPrice {
		return nil, xerrors.Errorf("bid %d below start price %d: %w", req.Amount, rec.StartPrice, common.ErrInsufficientFirstBid)
	}
	if env.Now > rec.EndTime {
		return nil, xerrors.Errorf("now %d after end time %d: %w", env.Now, rec.EndTime, common.ErrEndedAuction)
	}
	if !e.meetsIncrement(rec.CurrentBid, req.Amount) {
		return nil, xerrors.Errorf("bid %d over current %d: %w", req.Amount, rec.CurrentBid, common.ErrInsufficientBid)
	}
	if rec.HasBid() && req.OutBidder != rec.Bidder {
		return nil, xerrors.Errorf("out bidder %v, current bidder %v: %w", req.OutBidder, rec.Bidder, common.ErrOutBidderMismatch)
	}

	extended, err := common.CheckedAdd(env.Now, common.Seconds(e.params.AntiSnipeWindow))
	if err != nil {
		return nil, err
	}
	if rec.EndTime < extended {
		log.Infow("end time extended", "auction", req.Auction, "from", rec.EndTime, "to", extended)
		rec.EndTime = extended
	}

	vault, err := e.platform.VaultAddress(req.Auction)
	if err != nil {
		return nil, err
	}
	if rec.HasBid() {
		refund, err := env.Ledger.Account(req.OutBidderAccount)
		if err != nil {
			return nil, xerrors.Errorf("refund account %v: %v: %w", req.OutBidderAccount, err, common.ErrOutBidderMismatch)
		}
		if refund.Owner != rec.Bidder || refund.Mint != e.platform.SettlementMint {
			return nil, xerrors.Errorf("refund account %v owned by %v: %w", req.OutBidderAccount, refund.Owner, common.ErrOutBidderMismatch)
		}
		if err := env.Ledger.MoveUnits(vault, req.OutBidderAccount, e.platform.Authority, rec.CurrentBid); err != nil {
			return nil, xerrors.Errorf("refund %d to %v: %w", rec.CurrentBid, rec.Bidder, err)
		}
	} else {
		if _, err := env.Ledger.OpenAccount(vault, e.platform.Authority, e.platform.SettlementMint, req.Bidder); err != nil {
			return nil, xerrors.Errorf("open vault: %w", err)
		}
	}

	if err := env.Ledger.MoveUnits(req.BidderAccount, vault, req.Bidder, req.Amount); err != nil {
		return nil, xerrors.Errorf("escrow bid: %w", err)
	}

	rec.Bidder = req.Bidder
	rec.CurrentBid = req.Amount
	if err := env.Records.Save(req.Auction, rec); err != nil {
		return nil, err
	}

	log.Infow("bid accepted", "auction", req.Auction, "bidder", req.Bidder, "amount", req.Amount, "end_time", rec.EndTime)
	return rec, nil
}

// meetsIncrement applies both the absolute and the relative minimum
// increment. An absolute floor that overflows can never be met.
func (e *Engine) meetsIncrement(current, amount uint64) bool {
	floor, err := common.CheckedAdd(current, e.params.MinIncrement)
	if err != nil || amount < floor {
		return false
	}
	pct := e.params.MinIncrementPercent
	switch e.params.IncrementMode {
	case common.IncrementCompat:
		// 1 + pct/100 truncates to 1 below 100 percent
		return common.MulCmp(current, 1+pct/100, amount, 1) <= 0
	default:
		return common.MulCmp(amount, 100, current, 100+pct) >= 0
	}
}
