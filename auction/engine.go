// Package auction implements the auction lifecycle: create, bid, cancel and
// claim. Every transition runs against an Env supplied by the host, which
// owns atomicity. A transition that returns an error may have touched the
// Env partially; the host discards the whole unit.
package auction

import (
	"github.com/gagliardetto/solana-go"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/custody"
	"github.com/rqzrqh/nft_auction/oracle"
)

var log = logging.Logger("auction")

// Env is the view one transition works against.
type Env struct {
	Ledger  custody.Ledger
	Records Records
	Oracle  oracle.Oracle
	// Now is the trusted clock reading, in seconds since epoch.
	Now uint64
}

// Platform holds the identities the engine acts with. Authority is derived
// from ProgramID and never supplied by a caller.
type Platform struct {
	ProgramID      solana.PublicKey
	Authority      solana.PublicKey
	SettlementMint solana.PublicKey
	TreasuryWallet solana.PublicKey
	// Treasury is the settlement account of TreasuryWallet.
	Treasury solana.PublicKey
}

func NewPlatform(programID, settlementMint, treasuryWallet solana.PublicKey) (Platform, error) {
	authority, err := custody.AuthorityAddress(programID, common.GlobalAuthoritySeed)
	if err != nil {
		return Platform{}, xerrors.Errorf("derive custody authority: %w", err)
	}
	treasury, err := custody.AssociatedAddress(treasuryWallet, settlementMint)
	if err != nil {
		return Platform{}, xerrors.Errorf("derive treasury account: %w", err)
	}
	return Platform{
		ProgramID:      programID,
		Authority:      authority,
		SettlementMint: settlementMint,
		TreasuryWallet: treasuryWallet,
		Treasury:       treasury,
	}, nil
}

// CustodyAddress is the account holding the escrowed asset of mint.
func (p Platform) CustodyAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	return custody.AssociatedAddress(p.Authority, mint)
}

// VaultAddress is the settlement escrow of one auction.
func (p Platform) VaultAddress(auction solana.PublicKey) (solana.PublicKey, error) {
	return custody.VaultAddress(p.ProgramID, auction)
}

type Engine struct {
	params   common.Params
	global   common.GlobalConfig
	platform Platform
}

func NewEngine(params common.Params, global common.GlobalConfig, platform Platform) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if global.SuperAdmin.IsZero() {
		return nil, xerrors.New("global config has no super admin")
	}
	if platform.Authority.IsZero() || platform.SettlementMint.IsZero() || platform.Treasury.IsZero() {
		return nil, xerrors.New("platform identities are incomplete")
	}
	return &Engine{params: params, global: global, platform: platform}, nil
}

func (e *Engine) Params() common.Params {
	return e.params
}

func (e *Engine) Platform() Platform {
	return e.platform
}

func (e *Engine) SuperAdmin() solana.PublicKey {
	return e.global.SuperAdmin
}

func (e *Engine) load(env Env, address solana.PublicKey) (*common.AuctionRecord, error) {
	rec, err := env.Records.Load(address)
	if err != nil {
		return nil, err
	}
	if err := rec.Check(); err != nil {
		return nil, err
	}
	return rec, nil
}

// resolveCollection loads the metadata of mint and picks its verified
// collection.
func resolveCollection(env Env, metadata, mint solana.PublicKey) (*oracle.Metadata, solana.PublicKey, error) {
	md, err := oracle.Load(env.Oracle, metadata, mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	collection, err := oracle.VerifiedCollection(md)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return md, collection, nil
}
