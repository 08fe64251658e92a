package dao

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/model"
	"github.com/rqzrqh/nft_auction/util"
)

type recordStore struct {
	tx       *gorm.DB
	lockRows bool
}

var _ auction.Records = (*recordStore)(nil)

func (s *recordStore) take(address solana.PublicKey) (*model.Auction, error) {
	q := s.tx
	if s.lockRows {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row model.Auction
	err := q.Where("address = ?", address.String()).Take(&row).Error
	if xerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xerrors.Errorf("%v: %w", address, auction.ErrRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *recordStore) Allocate(address solana.PublicKey, rent uint64) error {
	var count int64
	if err := s.tx.Model(&model.Auction{}).Where("address = ?", address.String()).Count(&count).Error; err != nil {
		return err
	}
	if count != 0 {
		return xerrors.Errorf("%v: %w", address, auction.ErrRecordExists)
	}
	row := model.Auction{
		Address:    address.String(),
		CurrentBid: util.Decimal(0),
		StartPrice: util.Decimal(0),
		Raw:        make([]byte, common.RecordSize),
		Rent:       util.Decimal(rent),
	}
	return s.tx.Create(&row).Error
}

func (s *recordStore) Load(address solana.PublicKey) (*common.AuctionRecord, error) {
	row, err := s.take(address)
	if err != nil {
		return nil, err
	}
	rec := new(common.AuctionRecord)
	if err := rec.UnmarshalBinary(row.Raw); err != nil {
		return nil, xerrors.Errorf("auction %v: %w", address, err)
	}
	return rec, nil
}

func (s *recordStore) Save(address solana.PublicKey, rec *common.AuctionRecord) error {
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	result := s.tx.Model(&model.Auction{}).Where("address = ?", address.String()).Updates(map[string]interface{}{
		"seller":         rec.Seller.String(),
		"nft_mint":       rec.NftMint.String(),
		"nft_collection": rec.NftCollection.String(),
		"bidder":         keyString(rec.Bidder),
		"current_bid":    util.Decimal(rec.CurrentBid),
		"start_price":    util.Decimal(rec.StartPrice),
		"end_time":       rec.EndTime,
		"raw":            raw,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return xerrors.Errorf("%v: %w", address, auction.ErrRecordNotFound)
	}
	return nil
}

func (s *recordStore) Destroy(address solana.PublicKey) (uint64, error) {
	row, err := s.take(address)
	if err != nil {
		return 0, err
	}
	if err := s.tx.Delete(&model.Auction{}, row.ID).Error; err != nil {
		return 0, err
	}
	return util.Units(row.Rent)
}

// recordFromRow decodes the stored layout of a row read outside a unit.
func recordFromRow(row *model.Auction) (*common.AuctionRecord, error) {
	rec := new(common.AuctionRecord)
	if err := rec.UnmarshalBinary(row.Raw); err != nil {
		return nil, xerrors.Errorf("auction %s: %w", row.Address, err)
	}
	return rec, nil
}

// GetAuction reads the committed record at address.
func GetAuction(db *gorm.DB, address solana.PublicKey) (*common.AuctionRecord, error) {
	return (&recordStore{tx: db}).Load(address)
}
