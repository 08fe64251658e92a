package auction

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
)

var (
	ErrRecordExists   = xerrors.New("auction record already exists")
	ErrRecordNotFound = xerrors.New("auction record not found")
)

// Records is the arena of auction records keyed by auction address.
type Records interface {
	// Allocate reserves a zeroed record. It fails with ErrRecordExists when
	// the address is taken.
	Allocate(address solana.PublicKey, rent uint64) error
	Load(address solana.PublicKey) (*common.AuctionRecord, error)
	Save(address solana.PublicKey, rec *common.AuctionRecord) error
	// Destroy removes the record and returns the rent reserved for it.
	Destroy(address solana.PublicKey) (uint64, error)
}

type slot struct {
	raw  []byte
	rent uint64
}

// MemoryRecords keeps records in their fixed binary layout. Not safe for
// concurrent use.
type MemoryRecords struct {
	slots map[solana.PublicKey]slot
}

var _ Records = (*MemoryRecords)(nil)

func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{slots: make(map[solana.PublicKey]slot)}
}

func (m *MemoryRecords) Clone() *MemoryRecords {
	out := &MemoryRecords{slots: make(map[solana.PublicKey]slot, len(m.slots))}
	for k, v := range m.slots {
		raw := make([]byte, len(v.raw))
		copy(raw, v.raw)
		out.slots[k] = slot{raw: raw, rent: v.rent}
	}
	return out
}

func (m *MemoryRecords) Allocate(address solana.PublicKey, rent uint64) error {
	if _, ok := m.slots[address]; ok {
		return xerrors.Errorf("%v: %w", address, ErrRecordExists)
	}
	m.slots[address] = slot{raw: make([]byte, common.RecordSize), rent: rent}
	return nil
}

func (m *MemoryRecords) Load(address solana.PublicKey) (*common.AuctionRecord, error) {
	s, ok := m.slots[address]
	if !ok {
		return nil, xerrors.Errorf("%v: %w", address, ErrRecordNotFound)
	}
	rec := new(common.AuctionRecord)
	if err := rec.UnmarshalBinary(s.raw); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *MemoryRecords) Save(address solana.PublicKey, rec *common.AuctionRecord) error {
	s, ok := m.slots[address]
	if !ok {
		return xerrors.Errorf("%v: %w", address, ErrRecordNotFound)
	}
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	s.raw = raw
	m.slots[address] = s
	return nil
}

func (m *MemoryRecords) Destroy(address solana.PublicKey) (uint64, error) {
	s, ok := m.slots[address]
	if !ok {
		return 0, xerrors.Errorf("%v: %w", address, ErrRecordNotFound)
	}
	delete(m.slots, address)
	return s.rent, nil
}

func (m *MemoryRecords) Len() int {
	return len(m.slots)
}
