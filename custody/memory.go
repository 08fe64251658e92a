package custody

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
)

// MemoryStore keeps accounts in maps. It is not safe for concurrent use;
// callers clone it, mutate the clone and swap it in.
type MemoryStore struct {
	accounts map[solana.PublicKey]Account
	lamports map[solana.PublicKey]uint64
	journal  []Entry
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[solana.PublicKey]Account),
		lamports: make(map[solana.PublicKey]uint64),
	}
}

func (s *MemoryStore) Clone() *MemoryStore {
	out := &MemoryStore{
		accounts: make(map[solana.PublicKey]Account, len(s.accounts)),
		lamports: make(map[solana.PublicKey]uint64, len(s.lamports)),
		journal:  make([]Entry, len(s.journal)),
	}
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.lamports {
		out.lamports[k] = v
	}
	copy(out.journal, s.journal)
	return out
}

func (s *MemoryStore) GetAccount(address solana.PublicKey) (*Account, error) {
	acct, ok := s.accounts[address]
	if !ok {
		return nil, xerrors.Errorf("%v: %w", address, ErrAccountNotFound)
	}
	return &acct, nil
}

func (s *MemoryStore) PutAccount(acct *Account) error {
	s.accounts[acct.Address] = *acct
	return nil
}

func (s *MemoryStore) DeleteAccount(address solana.PublicKey) error {
	delete(s.accounts, address)
	return nil
}

func (s *MemoryStore) GetLamports(owner solana.PublicKey) (uint64, error) {
	return s.lamports[owner], nil
}

func (s *MemoryStore) PutLamports(owner solana.PublicKey, lamports uint64) error {
	if lamports == 0 {
		delete(s.lamports, owner)
		return nil
	}
	s.lamports[owner] = lamports
	return nil
}

func (s *MemoryStore) Append(e Entry) error {
	s.journal = append(s.journal, e)
	return nil
}

// Supply is the total amount of mint held across all accounts.
func (s *MemoryStore) Supply(mint solana.PublicKey) uint64 {
	var total uint64
	for _, acct := range s.accounts {
		if acct.Mint == mint {
			total += acct.Amount
		}
	}
	return total
}

// TotalLamports sums native balances and the rent held by accounts.
func (s *MemoryStore) TotalLamports() uint64 {
	var total uint64
	for _, l := range s.lamports {
		total += l
	}
	for _, acct := range s.accounts {
		total += acct.Lamports
	}
	return total
}

// Journal returns every entry appended so far.
func (s *MemoryStore) Journal() []Entry {
	out := make([]Entry, len(s.journal))
	copy(out, s.journal)
	return out
}

// Deposit credits amount units of mint to the associated account of owner,
// creating it rent-free when missing.
func Deposit(s Store, owner, mint solana.PublicKey, amount uint64) (solana.PublicKey, error) {
	addr, err := AssociatedAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	acct, err := s.GetAccount(addr)
	switch {
	case err == nil:
		if acct.Owner != owner || acct.Mint != mint {
			return solana.PublicKey{}, xerrors.Errorf("deposit into %v: %w", addr, ErrAccountMismatch)
		}
	case xerrors.Is(err, ErrAccountNotFound):
		acct = &Account{Address: addr, Owner: owner, Mint: mint}
	default:
		return solana.PublicKey{}, err
	}
	if acct.Amount, err = common.CheckedAdd(acct.Amount, amount); err != nil {
		return solana.PublicKey{}, err
	}
	if err := s.PutAccount(acct); err != nil {
		return solana.PublicKey{}, err
	}
	e := newEntry(EntryCredit)
	e.Account, e.To, e.Mint, e.Amount = addr, owner, mint, amount
	return addr, s.Append(e)
}

// Airdrop adds lamports to the native balance of owner.
func Airdrop(s Store, owner solana.PublicKey, lamports uint64) error {
	balance, err := s.GetLamports(owner)
	if err != nil {
		return err
	}
	if balance, err = common.CheckedAdd(balance, lamports); err != nil {
		return err
	}
	if err := s.PutLamports(owner, balance); err != nil {
		return err
	}
	e := newEntry(EntryCredit)
	e.To, e.Lamports = owner, lamports
	return s.Append(e)
}
