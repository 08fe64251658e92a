package custody

import (
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("custody")

// VaultSeed prefixes the derivation of an auction's settlement escrow.
const VaultSeed = "auction-vault"

var (
	ErrAccountNotFound   = xerrors.New("token account not found")
	ErrAccountMismatch   = xerrors.New("token account owner or mint mismatch")
	ErrMintMismatch      = xerrors.New("token accounts have different mints")
	ErrUnauthorized      = xerrors.New("authority does not own the source account")
	ErrInsufficientFunds = xerrors.New("insufficient funds")
	ErrSameAccount       = xerrors.New("source and destination are the same account")
)

// Account is a token holding. Lamports is the rent reserved for it.
type Account struct {
	Address  solana.PublicKey
	Owner    solana.PublicKey
	Mint     solana.PublicKey
	Amount   uint64
	Lamports uint64
}

type EntryKind string

const (
	EntryOpen      EntryKind = "open"
	EntryMoveUnits EntryKind = "move_units"
	EntryMoveAsset EntryKind = "move_asset"
	EntryClose     EntryKind = "close"
	EntryDebit     EntryKind = "debit"
	EntryCredit    EntryKind = "credit"
)

// Entry records one ledger movement. For open and close, From/To carry the
// payer and the rent recipient.
type Entry struct {
	ID       uuid.UUID
	Kind     EntryKind
	Account  solana.PublicKey
	From     solana.PublicKey
	To       solana.PublicKey
	Mint     solana.PublicKey
	Amount   uint64
	Lamports uint64
}

func newEntry(kind EntryKind) Entry {
	return Entry{ID: uuid.New(), Kind: kind}
}

// Ledger is the custody view a transition works against. Every method either
// applies fully or returns an error and leaves the ledger untouched.
type Ledger interface {
	Account(address solana.PublicKey) (Account, error)

	// OpenAccount creates a token account at address, charging rent to payer.
	// An existing account with the same owner and mint is reused.
	OpenAccount(address, owner, mint, payer solana.PublicKey) (bool, error)

	MoveUnits(from, to, authority solana.PublicKey, amount uint64) error
	MoveAsset(from, to, authority solana.PublicKey) error

	// CloseAccount removes account. Residual units go to the rent recipient's
	// associated account for the same mint, rent lamports to the recipient.
	CloseAccount(account, authority, rentRecipient solana.PublicKey) error

	Lamports(owner solana.PublicKey) (uint64, error)
	Debit(owner solana.PublicKey, lamports uint64) error
	Credit(owner solana.PublicKey, lamports uint64) error

	Entries() []Entry
}

// AssociatedAddress is the canonical token account of owner for mint.
func AssociatedAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return addr, err
}

// VaultAddress is the settlement escrow of one auction.
func VaultAddress(programID, auction solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(VaultSeed), auction[:]}, programID)
	return addr, err
}

// AuthorityAddress is the platform custody authority of programID.
func AuthorityAddress(programID solana.PublicKey, seed string) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(seed)}, programID)
	return addr, err
}
