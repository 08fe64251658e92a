package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/oracle"
)

const start = uint64(1_700_000_000)

func key() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

type recorder struct {
	mtx    sync.Mutex
	events []Event
}

func (r *recorder) Committed(_ context.Context, ev Event) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type testHost struct {
	*Host
	t        *testing.T
	backend  *MemoryBackend
	registry *oracle.Registry
	clock    *FixedClock
	events   *recorder
	platform auction.Platform
}

func newTestHost(t *testing.T) *testHost {
	params := common.DefaultParams()
	params.MinIncrement = 1

	platform, err := auction.NewPlatform(key(), key(), key())
	require.NoError(t, err)
	engine, err := auction.NewEngine(params, common.GlobalConfig{SuperAdmin: key()}, platform)
	require.NoError(t, err)

	registry := oracle.NewRegistry()
	backend := NewMemoryBackend(registry, params.AccountRent)
	_, err = backend.Fund(platform.TreasuryWallet, platform.SettlementMint, 0, 0)
	require.NoError(t, err)

	clock := NewFixedClock(start)
	events := &recorder{}
	return &testHost{
		Host:     New(engine, backend, clock, events),
		t:        t,
		backend:  backend,
		registry: registry,
		clock:    clock,
		events:   events,
		platform: platform,
	}
}

func (h *testHost) wallet(units uint64) (solana.PublicKey, solana.PublicKey) {
	owner := key()
	acct, err := h.backend.Fund(owner, h.platform.SettlementMint, units, 1_000_000_000)
	require.NoError(h.t, err)
	return owner, acct
}

func (h *testHost) listing(seller solana.PublicKey, creators ...oracle.Creator) (solana.PublicKey, *oracle.Metadata) {
	mint := key()
	md, err := h.registry.Put(oracle.Metadata{
		Mint:                 mint,
		Collection:           &oracle.Collection{Key: key(), Verified: true},
		Creators:             creators,
		SellerFeeBasisPoints: 500,
	})
	require.NoError(h.t, err)
	_, err = h.backend.Fund(seller, mint, 1, 0)
	require.NoError(h.t, err)

	auctionAddr := key()
	holding, err := custody.AssociatedAddress(seller, mint)
	require.NoError(h.t, err)
	_, err = h.CreateAuction(context.Background(), auction.CreateRequest{
		Auction:            auctionAddr,
		Seller:             seller,
		SellerAssetAccount: holding,
		Mint:               mint,
		Metadata:           md.Address,
		StartPrice:         100,
		Duration:           common.Day,
	})
	require.NoError(h.t, err)
	return auctionAddr, md
}

func TestLifecycleThroughHost(t *testing.T) {
	ctx := context.Background()
	h := newTestHost(t)

	seller, sellerAccount := h.wallet(0)
	creator := key()
	auctionAddr, md := h.listing(seller, oracle.Creator{Address: creator, Verified: true, Share: 100})

	bidder, bidderAccount := h.wallet(10_000)
	rec, err := h.PlaceBid(ctx, auction.BidRequest{Auction: auctionAddr, Bidder: bidder, BidderAccount: bidderAccount, Amount: 1000})
	require.NoError(t, err)
	require.Equal(t, uint64(1000), rec.CurrentBid)

	got, err := h.Auction(ctx, auctionAddr)
	require.NoError(t, err)
	require.Equal(t, rec, got)

	accounts, err := h.OpenAccounts(ctx, bidder,
		AccountSpec{Owner: bidder, Mint: md.Mint},
		AccountSpec{Owner: creator, Mint: h.platform.SettlementMint},
	)
	require.NoError(t, err)

	// too early, nothing changes
	_, err = h.ClaimAuction(ctx, auction.ClaimRequest{
		Auction: auctionAddr, Claimer: bidder, WinnerAssetAccount: accounts[0],
		SellerAccount: sellerAccount, Metadata: md.Address, RoyaltyAccounts: accounts[1:],
	})
	require.ErrorIs(t, err, common.ErrNotEndedAuction)

	h.clock.Advance(common.Day)
	receipt, err := h.ClaimAuction(ctx, auction.ClaimRequest{
		Auction: auctionAddr, Claimer: bidder, WinnerAssetAccount: accounts[0],
		SellerAccount: sellerAccount, Metadata: md.Address, RoyaltyAccounts: accounts[1:],
	})
	require.NoError(t, err)
	require.Equal(t, uint64(50), receipt.RoyaltiesPaid)
	require.Equal(t, uint64(20), receipt.Distribution.PlatformFee)
	require.Equal(t, uint64(930), receipt.Distribution.SellerProceeds)

	_, err = h.Auction(ctx, auctionAddr)
	require.ErrorIs(t, err, auction.ErrRecordNotFound)

	require.Equal(t, []EventKind{EventCreated, EventBid, EventClaimed}, h.events.kinds())
	for i, ev := range h.events.events {
		require.Equal(t, uint64(i+1), ev.Seq)
		require.Equal(t, auctionAddr, ev.Auction)
	}
	last := h.events.events[2]
	require.True(t, last.Destroyed())
	require.Equal(t, receipt, last.Receipt)
	require.Equal(t, start+86400, last.Time)

	store, _ := h.backend.Snapshot()
	winner, err := store.GetAccount(accounts[0])
	require.NoError(t, err)
	require.Equal(t, uint64(1), winner.Amount)
	require.Zero(t, h.locks.size())
}

func TestCancelThroughHost(t *testing.T) {
	ctx := context.Background()
	h := newTestHost(t)

	seller, _ := h.wallet(0)
	auctionAddr, md := h.listing(seller, oracle.Creator{Address: key(), Verified: true, Share: 100})
	holding, err := custody.AssociatedAddress(seller, md.Mint)
	require.NoError(t, err)

	err = h.CancelAuction(ctx, auction.CancelRequest{Auction: auctionAddr, Seller: key(), SellerAssetAccount: holding})
	require.ErrorIs(t, err, common.ErrInvalidCancel)

	require.NoError(t, h.CancelAuction(ctx, auction.CancelRequest{Auction: auctionAddr, Seller: seller, SellerAssetAccount: holding}))
	require.Equal(t, []EventKind{EventCreated, EventCancelled}, h.events.kinds())
	require.Equal(t, seller, h.events.events[1].Record.Seller)
}

func TestCancelledContext(t *testing.T) {
	h := newTestHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Auction(ctx, key())
	require.ErrorIs(t, err, context.Canceled)
}

// Concurrent bidders race on one auction. Losers see a stale out bidder or
// a stale increment and retry against the fresh record.
func TestConcurrentBids(t *testing.T) {
	ctx := context.Background()
	h := newTestHost(t)

	seller, _ := h.wallet(0)
	auctionAddr, _ := h.listing(seller, oracle.Creator{Address: key(), Verified: true, Share: 100})

	type bidder struct{ owner, account solana.PublicKey }
	bidders := make([]bidder, 8)
	for i := range bidders {
		owner, acct := h.wallet(1_000_000_000)
		bidders[i] = bidder{owner, acct}
	}
	accountOf := make(map[solana.PublicKey]solana.PublicKey, len(bidders))
	for _, b := range bidders {
		accountOf[b.owner] = b.account
	}

	grp, gctx := errgroup.WithContext(ctx)
	for _, b := range bidders {
		b := b
		grp.Go(func() error {
			for accepted := 0; accepted < 5; {
				rec, err := h.Auction(gctx, auctionAddr)
				if err != nil {
					return err
				}
				amount := rec.CurrentBid*106/100 + 1
				if amount < rec.StartPrice {
					amount = rec.StartPrice
				}
				_, err = h.PlaceBid(gctx, auction.BidRequest{
					Auction:          auctionAddr,
					Bidder:           b.owner,
					BidderAccount:    b.account,
					OutBidder:        rec.Bidder,
					OutBidderAccount: accountOf[rec.Bidder],
					Amount:           amount,
				})
				switch {
				case err == nil:
					accepted++
				case xerrors.Is(err, common.ErrOutBidderMismatch), xerrors.Is(err, common.ErrInsufficientBid), xerrors.Is(err, common.ErrInsufficientFirstBid):
					time.Sleep(time.Millisecond)
				default:
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, grp.Wait())

	rec, err := h.Auction(ctx, auctionAddr)
	require.NoError(t, err)

	store, _ := h.backend.Snapshot()
	vault, err := h.platform.VaultAddress(auctionAddr)
	require.NoError(t, err)
	v, err := store.GetAccount(vault)
	require.NoError(t, err)
	require.Equal(t, rec.CurrentBid, v.Amount)

	// every bidder but the leader got their money back
	var held uint64
	for _, b := range bidders {
		acct, err := store.GetAccount(b.account)
		require.NoError(t, err)
		held += 1_000_000_000 - acct.Amount
		if b.owner != rec.Bidder {
			require.Equal(t, uint64(1_000_000_000), acct.Amount)
		}
	}
	require.Equal(t, rec.CurrentBid, held)

	// bids were accepted in strictly increasing order
	var last uint64
	for _, ev := range h.events.events {
		if ev.Kind != EventBid {
			continue
		}
		require.Greater(t, ev.Record.CurrentBid, last)
		last = ev.Record.CurrentBid
	}
	require.Equal(t, 1+len(bidders)*5, len(h.events.events))
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	a, b := key(), key()

	unlockA := k.Lock(a)
	done := make(chan struct{})
	go func() {
		unlock := k.Lock(b)
		unlock()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated key blocked")
	}

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock(a)
		close(acquired)
		unlock()
	}()
	select {
	case <-acquired:
		t.Fatal("same key acquired twice")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-acquired
	require.Eventually(t, func() bool { return k.size() == 0 }, time.Second, time.Millisecond)
}

func TestFixedClock(t *testing.T) {
	c := NewFixedClock(10)
	require.Equal(t, uint64(10), c.Now())
	require.Equal(t, uint64(610), c.Advance(10*time.Minute))
	c.Set(5)
	require.Equal(t, uint64(5), c.Now())
	require.NotZero(t, SystemClock{}.Now())
}
