package common

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("common")

// RecordSize is the fixed persisted width of an AuctionRecord.
const RecordSize = 32 + 32 + 32 + 32 + 8 + 8 + 8

const (
	offSeller     = 0
	offMint       = 32
	offCollection = 64
	offBidder     = 96
	offCurrentBid = 128
	offStartPrice = 136
	offEndTime    = 144
)

// GlobalAuthoritySeed derives the platform custody authority from the program id.
const GlobalAuthoritySeed = "global-authority"

var ErrRecordLayout = xerrors.New("auction record layout mismatch")

// AuctionRecord is the durable state of one auction. Bidder is the zero key
// until the first accepted bid.
type AuctionRecord struct {
	Seller        solana.PublicKey
	NftMint       solana.PublicKey
	NftCollection solana.PublicKey

	Bidder     solana.PublicKey
	CurrentBid uint64

	StartPrice uint64
	EndTime    uint64
}

func (r *AuctionRecord) HasBid() bool {
	return !r.Bidder.IsZero()
}

// Check reports the first broken record invariant.
func (r *AuctionRecord) Check() error {
	if r.NftCollection.IsZero() {
		return xerrors.Errorf("auction %v has no collection: %w", r.NftMint, ErrRecordLayout)
	}
	if (r.CurrentBid == 0) != r.Bidder.IsZero() {
		log.Errorw("record invariant broken", "bidder", r.Bidder, "current_bid", r.CurrentBid)
		return xerrors.Errorf("bidder %v with current bid %d: %w", r.Bidder, r.CurrentBid, ErrRecordLayout)
	}
	return nil
}

func (r AuctionRecord) MarshalBinary() ([]byte, error) {
	buf := make([]byte, RecordSize)
	copy(buf[offSeller:], r.Seller[:])
	copy(buf[offMint:], r.NftMint[:])
	copy(buf[offCollection:], r.NftCollection[:])
	copy(buf[offBidder:], r.Bidder[:])
	binary.LittleEndian.PutUint64(buf[offCurrentBid:], r.CurrentBid)
	binary.LittleEndian.PutUint64(buf[offStartPrice:], r.StartPrice)
	binary.LittleEndian.PutUint64(buf[offEndTime:], r.EndTime)
	return buf, nil
}

func (r *AuctionRecord) UnmarshalBinary(data []byte) error {
	if len(data) != RecordSize {
		return xerrors.Errorf("got %d bytes, want %d: %w", len(data), RecordSize, ErrRecordLayout)
	}
	copy(r.Seller[:], data[offSeller:offMint])
	copy(r.NftMint[:], data[offMint:offCollection])
	copy(r.NftCollection[:], data[offCollection:offBidder])
	copy(r.Bidder[:], data[offBidder:offCurrentBid])
	r.CurrentBid = binary.LittleEndian.Uint64(data[offCurrentBid:])
	r.StartPrice = binary.LittleEndian.Uint64(data[offStartPrice:])
	r.EndTime = binary.LittleEndian.Uint64(data[offEndTime:])
	return nil
}

// GlobalConfig is written once at bootstrap and read-only afterwards.
type GlobalConfig struct {
	SuperAdmin solana.PublicKey
}
