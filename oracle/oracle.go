package oracle

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
)

var log = logging.Logger("oracle")

// MetadataSeed prefixes the derivation of a metadata record address.
const MetadataSeed = "metadata"

var ErrNotFound = xerrors.New("metadata not found")

type Creator struct {
	Address  solana.PublicKey `json:"address"`
	Verified bool             `json:"verified"`
	Share    uint8            `json:"share"`
}

type Collection struct {
	Key      solana.PublicKey `json:"key"`
	Verified bool             `json:"verified"`
}

// Metadata is the registry view of one asset. Creators is nil when the
// registry carries no creator list.
type Metadata struct {
	Address              solana.PublicKey
	Mint                 solana.PublicKey
	Collection           *Collection
	Creators             []Creator
	SellerFeeBasisPoints uint16
}

// Oracle resolves the registry record of an asset.
type Oracle interface {
	Resolve(mint solana.PublicKey) (*Metadata, error)
}

// MetadataAddress is the canonical registry address for mint.
func MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{
		[]byte(MetadataSeed),
		solana.TokenMetadataProgramID[:],
		mint[:],
	}, solana.TokenMetadataProgramID)
	return addr, err
}

// Load resolves the metadata of mint and checks that the caller-supplied
// record address is the canonical one.
func Load(o Oracle, metadataAddr, mint solana.PublicKey) (*Metadata, error) {
	expected, err := MetadataAddress(mint)
	if err != nil {
		return nil, xerrors.Errorf("derive metadata address of %v: %v: %w", mint, err, common.ErrInvalidMetadata)
	}
	if expected != metadataAddr {
		return nil, xerrors.Errorf("metadata %v, expected %v: %w", metadataAddr, expected, common.ErrInvalidMetadata)
	}

	md, err := o.Resolve(mint)
	if err != nil {
		return nil, xerrors.Errorf("resolve %v: %v: %w", mint, err, common.ErrInvalidMetadata)
	}
	if md.Mint != mint || md.Address != expected {
		return nil, xerrors.Errorf("registry record %v does not describe %v: %w", md.Address, mint, common.ErrInvalidMetadata)
	}
	return md, nil
}

// VerifiedCollection picks the verified collection key, falling back to the
// first verified creator.
func VerifiedCollection(md *Metadata) (solana.PublicKey, error) {
	if md.Collection != nil && md.Collection.Verified && !md.Collection.Key.IsZero() {
		return md.Collection.Key, nil
	}
	for _, c := range md.Creators {
		if c.Verified && !c.Address.IsZero() {
			return c.Address, nil
		}
	}
	return solana.PublicKey{}, xerrors.Errorf("asset %v: %w", md.Mint, common.ErrMetadataCreatorParseError)
}

// Registry is an in-memory Oracle keyed by mint.
type Registry struct {
	lk      sync.RWMutex
	records map[solana.PublicKey]*Metadata
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[solana.PublicKey]*Metadata)}
}

// Put stores md under its canonical address; the returned copy carries it.
func (r *Registry) Put(md Metadata) (*Metadata, error) {
	addr, err := MetadataAddress(md.Mint)
	if err != nil {
		return nil, err
	}
	md.Address = addr
	md.Creators = cloneCreators(md.Creators)

	r.lk.Lock()
	defer r.lk.Unlock()
	r.records[md.Mint] = &md
	log.Debugw("registry put", "mint", md.Mint, "address", addr, "creators", len(md.Creators))
	return clone(&md), nil
}

func (r *Registry) Resolve(mint solana.PublicKey) (*Metadata, error) {
	r.lk.RLock()
	defer r.lk.RUnlock()
	md, ok := r.records[mint]
	if !ok {
		return nil, xerrors.Errorf("%v: %w", mint, ErrNotFound)
	}
	return clone(md), nil
}

func clone(md *Metadata) *Metadata {
	out := *md
	if md.Collection != nil {
		c := *md.Collection
		out.Collection = &c
	}
	out.Creators = cloneCreators(md.Creators)
	return &out
}

func cloneCreators(in []Creator) []Creator {
	if in == nil {
		return nil
	}
	out := make([]Creator, len(in))
	copy(out, in)
	return out
}
