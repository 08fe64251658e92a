// Package host executes auction transitions. It serializes transitions per
// auction address, runs each inside one atomic unit of a Backend, reads the
// trusted clock once per transition and notifies observers after commit.
package host

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/stats"
	"go.uber.org/atomic"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/metrics"
)

var log = logging.Logger("host")

// Backend owns durable state. Atomically either commits every change fn
// made or none of them.
type Backend interface {
	Atomically(ctx context.Context, fn func(env auction.Env) error) error
}

type EventKind string

const (
	EventCreated   EventKind = "created"
	EventBid       EventKind = "bid"
	EventCancelled EventKind = "cancelled"
	EventClaimed   EventKind = "claimed"
)

// Event describes one committed transition. Record is the state after the
// transition, or the last state for cancel and claim.
type Event struct {
	Seq     uint64
	Kind    EventKind
	Auction solana.PublicKey
	Record  common.AuctionRecord
	Receipt *auction.ClaimReceipt
	Time    uint64
}

// Destroyed reports whether the record no longer exists after the event.
func (e Event) Destroyed() bool {
	return e.Kind == EventCancelled || e.Kind == EventClaimed
}

type Observer interface {
	Committed(ctx context.Context, ev Event)
}

type Host struct {
	engine    *auction.Engine
	backend   Backend
	clock     Clock
	locks     *keyedMutex
	seq       *atomic.Uint64
	observers []Observer
}

func New(engine *auction.Engine, backend Backend, clock Clock, observers ...Observer) *Host {
	return &Host{
		engine:    engine,
		backend:   backend,
		clock:     clock,
		locks:     newKeyedMutex(),
		seq:       atomic.NewUint64(0),
		observers: observers,
	}
}

func (h *Host) Engine() *auction.Engine {
	return h.engine
}

func (h *Host) CreateAuction(ctx context.Context, req auction.CreateRequest) (*common.AuctionRecord, error) {
	var rec *common.AuctionRecord
	err := h.run(ctx, EventCreated, req.Auction, func(env auction.Env) (*Event, error) {
		var err error
		if rec, err = h.engine.Create(env, req); err != nil {
			return nil, err
		}
		return &Event{Record: *rec}, nil
	})
	return rec, err
}

func (h *Host) PlaceBid(ctx context.Context, req auction.BidRequest) (*common.AuctionRecord, error) {
	var rec *common.AuctionRecord
	err := h.run(ctx, EventBid, req.Auction, func(env auction.Env) (*Event, error) {
		var err error
		if rec, err = h.engine.Bid(env, req); err != nil {
			return nil, err
		}
		return &Event{Record: *rec}, nil
	})
	return rec, err
}

func (h *Host) CancelAuction(ctx context.Context, req auction.CancelRequest) error {
	return h.run(ctx, EventCancelled, req.Auction, func(env auction.Env) (*Event, error) {
		rec, err := env.Records.Load(req.Auction)
		if err != nil {
			return nil, err
		}
		if err := h.engine.Cancel(env, req); err != nil {
			return nil, err
		}
		return &Event{Record: *rec}, nil
	})
}

func (h *Host) ClaimAuction(ctx context.Context, req auction.ClaimRequest) (*auction.ClaimReceipt, error) {
	var receipt *auction.ClaimReceipt
	err := h.run(ctx, EventClaimed, req.Auction, func(env auction.Env) (*Event, error) {
		var err error
		if receipt, err = h.engine.Claim(env, req); err != nil {
			return nil, err
		}
		return &Event{Record: receipt.Record, Receipt: receipt}, nil
	})
	if err == nil {
		stats.Record(ctx, metrics.SettledVolume.M(int64(receipt.Record.CurrentBid)), metrics.RoyaltyShortfall.M(int64(receipt.Skipped)))
	}
	return receipt, err
}

// Auction reads the committed record at address.
func (h *Host) Auction(ctx context.Context, address solana.PublicKey) (*common.AuctionRecord, error) {
	var rec *common.AuctionRecord
	err := h.backend.Atomically(ctx, func(env auction.Env) error {
		var err error
		rec, err = env.Records.Load(address)
		return err
	})
	return rec, err
}

// AccountSpec names an associated token account.
type AccountSpec struct {
	Owner solana.PublicKey
	Mint  solana.PublicKey
}

// OpenAccounts creates the associated accounts a transition will need,
// paid by payer. Existing accounts are left alone.
func (h *Host) OpenAccounts(ctx context.Context, payer solana.PublicKey, specs ...AccountSpec) ([]solana.PublicKey, error) {
	addrs := make([]solana.PublicKey, len(specs))
	err := h.backend.Atomically(ctx, func(env auction.Env) error {
		for i, s := range specs {
			addr, err := custody.AssociatedAddress(s.Owner, s.Mint)
			if err != nil {
				return err
			}
			created, err := env.Ledger.OpenAccount(addr, s.Owner, s.Mint, payer)
			if err != nil {
				return xerrors.Errorf("open account of %v for %v: %w", s.Owner, s.Mint, err)
			}
			if created {
				log.Infow("account opened", "address", addr, "owner", s.Owner, "mint", s.Mint, "payer", payer)
			}
			addrs[i] = addr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

func (h *Host) run(ctx context.Context, kind EventKind, address solana.PublicKey, fn func(env auction.Env) (*Event, error)) error {
	ctx = metrics.Tagged(ctx, string(kind))

	waitStart := time.Now()
	unlock := h.locks.Lock(address)
	defer unlock()
	stats.Record(ctx, metrics.LockWait.M(metrics.SinceInMilliseconds(waitStart)))

	stop := metrics.Timer(ctx, metrics.TransitionDuration)
	defer stop()

	now := h.clock.Now()
	var ev *Event
	err := h.backend.Atomically(ctx, func(env auction.Env) error {
		env.Now = now
		var err error
		ev, err = fn(env)
		return err
	})
	if err != nil {
		var ae *common.AuctionError
		if xerrors.As(err, &ae) {
			metrics.RecordOutcome(ctx, metrics.OutcomeRejected, ae.Name)
			log.Debugw("transition rejected", "kind", kind, "auction", address, "code", ae.Code, "err", err)
		} else {
			metrics.RecordOutcome(ctx, metrics.OutcomeFailed, "")
			log.Warnw("transition failed", "kind", kind, "auction", address, "err", err)
		}
		return err
	}
	metrics.RecordOutcome(ctx, metrics.OutcomeCommitted, "")

	ev.Seq = h.seq.Inc()
	ev.Kind = kind
	ev.Auction = address
	ev.Time = now
	for _, o := range h.observers {
		o.Committed(ctx, *ev)
	}
	log.Debugw("transition committed", "kind", kind, "auction", address, "seq", ev.Seq, "elapsed", time.Since(waitStart))
	return nil
}
