package custody

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
)

// Store is the raw account storage behind a Book.
type Store interface {
	GetAccount(address solana.PublicKey) (*Account, error)
	PutAccount(acct *Account) error
	DeleteAccount(address solana.PublicKey) error

	GetLamports(owner solana.PublicKey) (uint64, error)
	PutLamports(owner solana.PublicKey, lamports uint64) error

	Append(e Entry) error
}

// Book implements Ledger rules on top of a Store: owner authority, mint
// matching, balance and overflow checks. All checks run before the first
// write.
type Book struct {
	store       Store
	accountRent uint64
	entries     []Entry
}

func NewBook(store Store, accountRent uint64) *Book {
	return &Book{store: store, accountRent: accountRent}
}

var _ Ledger = (*Book)(nil)

func (b *Book) Account(address solana.PublicKey) (Account, error) {
	acct, err := b.store.GetAccount(address)
	if err != nil {
		return Account{}, err
	}
	return *acct, nil
}

func (b *Book) OpenAccount(address, owner, mint, payer solana.PublicKey) (bool, error) {
	existing, err := b.store.GetAccount(address)
	if err == nil {
		if existing.Owner != owner || existing.Mint != mint {
			return false, xerrors.Errorf("open %v for %v/%v, found %v/%v: %w", address, owner, mint, existing.Owner, existing.Mint, ErrAccountMismatch)
		}
		log.Debugw("account already open", "address", address, "owner", owner, "amount", existing.Amount)
		return false, nil
	}
	if !xerrors.Is(err, ErrAccountNotFound) {
		return false, err
	}

	balance, err := b.store.GetLamports(payer)
	if err != nil {
		return false, err
	}
	if balance < b.accountRent {
		return false, xerrors.Errorf("payer %v has %d lamports, rent is %d: %w", payer, balance, b.accountRent, ErrInsufficientFunds)
	}

	if err := b.store.PutLamports(payer, balance-b.accountRent); err != nil {
		return false, err
	}
	acct := &Account{Address: address, Owner: owner, Mint: mint, Lamports: b.accountRent}
	if err := b.store.PutAccount(acct); err != nil {
		return false, err
	}

	e := newEntry(EntryOpen)
	e.Account, e.From, e.To, e.Mint, e.Lamports = address, payer, owner, mint, b.accountRent
	return true, b.append(e)
}

func (b *Book) MoveUnits(from, to, authority solana.PublicKey, amount uint64) error {
	return b.move(EntryMoveUnits, from, to, authority, amount)
}

func (b *Book) MoveAsset(from, to, authority solana.PublicKey) error {
	return b.move(EntryMoveAsset, from, to, authority, 1)
}

func (b *Book) move(kind EntryKind, from, to, authority solana.PublicKey, amount uint64) error {
	if from == to {
		return xerrors.Errorf("move %v: %w", from, ErrSameAccount)
	}
	src, err := b.store.GetAccount(from)
	if err != nil {
		return xerrors.Errorf("source %v: %w", from, err)
	}
	dst, err := b.store.GetAccount(to)
	if err != nil {
		return xerrors.Errorf("destination %v: %w", to, err)
	}
	if src.Owner != authority {
		return xerrors.Errorf("%v owned by %v, signed by %v: %w", from, src.Owner, authority, ErrUnauthorized)
	}
	if src.Mint != dst.Mint {
		return xerrors.Errorf("%v -> %v: %w", src.Mint, dst.Mint, ErrMintMismatch)
	}
	if src.Amount < amount {
		return xerrors.Errorf("%v holds %d, needs %d: %w", from, src.Amount, amount, ErrInsufficientFunds)
	}
	credited, err := common.CheckedAdd(dst.Amount, amount)
	if err != nil {
		return err
	}

	src.Amount -= amount
	dst.Amount = credited
	if err := b.store.PutAccount(src); err != nil {
		return err
	}
	if err := b.store.PutAccount(dst); err != nil {
		return err
	}

	e := newEntry(kind)
	e.From, e.To, e.Mint, e.Amount = from, to, src.Mint, amount
	return b.append(e)
}

func (b *Book) CloseAccount(account, authority, rentRecipient solana.PublicKey) error {
	acct, err := b.store.GetAccount(account)
	if err != nil {
		return xerrors.Errorf("close %v: %w", account, err)
	}
	if acct.Owner != authority {
		return xerrors.Errorf("close %v owned by %v, signed by %v: %w", account, acct.Owner, authority, ErrUnauthorized)
	}

	var sweep *Account
	if acct.Amount > 0 {
		dest, err := AssociatedAddress(rentRecipient, acct.Mint)
		if err != nil {
			return err
		}
		if sweep, err = b.store.GetAccount(dest); err != nil {
			return xerrors.Errorf("residual %d of %v needs %v: %w", acct.Amount, account, dest, err)
		}
		if sweep.Amount, err = common.CheckedAdd(sweep.Amount, acct.Amount); err != nil {
			return err
		}
	}

	balance, err := b.store.GetLamports(rentRecipient)
	if err != nil {
		return err
	}
	if balance, err = common.CheckedAdd(balance, acct.Lamports); err != nil {
		return err
	}

	if sweep != nil {
		if err := b.store.PutAccount(sweep); err != nil {
			return err
		}
	}
	if err := b.store.DeleteAccount(account); err != nil {
		return err
	}
	if err := b.store.PutLamports(rentRecipient, balance); err != nil {
		return err
	}

	e := newEntry(EntryClose)
	e.Account, e.From, e.To, e.Mint, e.Amount, e.Lamports = account, authority, rentRecipient, acct.Mint, acct.Amount, acct.Lamports
	return b.append(e)
}

func (b *Book) Lamports(owner solana.PublicKey) (uint64, error) {
	return b.store.GetLamports(owner)
}

func (b *Book) Debit(owner solana.PublicKey, lamports uint64) error {
	balance, err := b.store.GetLamports(owner)
	if err != nil {
		return err
	}
	if balance < lamports {
		return xerrors.Errorf("%v has %d lamports, needs %d: %w", owner, balance, lamports, ErrInsufficientFunds)
	}
	if err := b.store.PutLamports(owner, balance-lamports); err != nil {
		return err
	}
	e := newEntry(EntryDebit)
	e.From, e.Lamports = owner, lamports
	return b.append(e)
}

func (b *Book) Credit(owner solana.PublicKey, lamports uint64) error {
	balance, err := b.store.GetLamports(owner)
	if err != nil {
		return err
	}
	if balance, err = common.CheckedAdd(balance, lamports); err != nil {
		return err
	}
	if err := b.store.PutLamports(owner, balance); err != nil {
		return err
	}
	e := newEntry(EntryCredit)
	e.To, e.Lamports = owner, lamports
	return b.append(e)
}

func (b *Book) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *Book) append(e Entry) error {
	if err := b.store.Append(e); err != nil {
		return err
	}
	b.entries = append(b.entries, e)
	return nil
}
