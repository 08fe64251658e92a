package dao

import (
	"context"

	"github.com/gagliardetto/solana-go"
	logging "github.com/ipfs/go-log/v2"
	"gorm.io/gorm"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/host"
)

var log = logging.Logger("dao")

// Dao is the database backend. Each unit of work is one gorm transaction.
type Dao struct {
	db          *gorm.DB
	accountRent uint64
	// rows read inside a unit are locked for update where the dialect can
	lockRows bool
}

var _ host.Backend = (*Dao)(nil)

func NewDao(db *gorm.DB, accountRent uint64) *Dao {
	return &Dao{
		db:          db,
		accountRent: accountRent,
		lockRows:    db.Dialector.Name() == "mysql",
	}
}

func (d *Dao) DB() *gorm.DB {
	return d.db
}

func (d *Dao) Atomically(ctx context.Context, fn func(env auction.Env) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(d.env(tx))
	})
}

func (d *Dao) env(tx *gorm.DB) auction.Env {
	return auction.Env{
		Ledger:  custody.NewBook(d.ledgerStore(tx), d.accountRent),
		Records: &recordStore{tx: tx, lockRows: d.lockRows},
		Oracle:  NewMetadataStore(tx),
	}
}

func (d *Dao) ledgerStore(tx *gorm.DB) *ledgerStore {
	return &ledgerStore{tx: tx, lockRows: d.lockRows}
}

// Fund credits units of mint and lamports to owner. Development helper for
// wallets that have no other way onto the ledger.
func (d *Dao) Fund(ctx context.Context, owner, mint solana.PublicKey, units, lamports uint64) (solana.PublicKey, error) {
	var addr solana.PublicKey
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := d.ledgerStore(tx)
		if lamports > 0 {
			if err := custody.Airdrop(store, owner, lamports); err != nil {
				return err
			}
		}
		var err error
		addr, err = custody.Deposit(store, owner, mint, units)
		return err
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	log.Infow("funded", "owner", owner, "mint", mint, "account", addr, "units", units, "lamports", lamports)
	return addr, nil
}

// Account reads a token account outside any unit of work.
func (d *Dao) Account(ctx context.Context, address solana.PublicKey) (custody.Account, error) {
	acct, err := (&ledgerStore{tx: d.db.WithContext(ctx)}).GetAccount(address)
	if err != nil {
		return custody.Account{}, err
	}
	return *acct, nil
}
