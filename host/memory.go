package host

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/oracle"
)

// MemoryBackend runs each unit on a copy of its state and swaps the copy
// in on success.
type MemoryBackend struct {
	mtx         sync.Mutex
	store       *custody.MemoryStore
	records     *auction.MemoryRecords
	oracle      oracle.Oracle
	accountRent uint64
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend(o oracle.Oracle, accountRent uint64) *MemoryBackend {
	return &MemoryBackend{
		store:       custody.NewMemoryStore(),
		records:     auction.NewMemoryRecords(),
		oracle:      o,
		accountRent: accountRent,
	}
}

func (b *MemoryBackend) Atomically(ctx context.Context, fn func(env auction.Env) error) error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	store, records := b.store.Clone(), b.records.Clone()
	env := auction.Env{
		Ledger:  custody.NewBook(store, b.accountRent),
		Records: records,
		Oracle:  b.oracle,
	}
	if err := fn(env); err != nil {
		return err
	}
	b.store, b.records = store, records
	return nil
}

// Fund credits settlement or asset units and lamports to owner.
func (b *MemoryBackend) Fund(owner, mint solana.PublicKey, units, lamports uint64) (solana.PublicKey, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if lamports > 0 {
		if err := custody.Airdrop(b.store, owner, lamports); err != nil {
			return solana.PublicKey{}, err
		}
	}
	return custody.Deposit(b.store, owner, mint, units)
}

// Snapshot returns copies of the committed state.
func (b *MemoryBackend) Snapshot() (*custody.MemoryStore, *auction.MemoryRecords) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.store.Clone(), b.records.Clone()
}
