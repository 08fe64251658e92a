package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auction stores one auction record. Raw is the authoritative fixed-width
// layout; the other columns mirror it for lookups.
type Auction struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement:true"`
	Address string `gorm:"uniqueIndex;type:varchar(64)"`

	Seller        string          `gorm:"index;type:varchar(64)"`
	NftMint       string          `gorm:"index;type:varchar(64)"`
	NftCollection string          `gorm:"type:varchar(64)"`
	Bidder        string          `gorm:"index;type:varchar(64)"`
	CurrentBid    decimal.Decimal `gorm:"type:DECIMAL(38,0)"`
	StartPrice    decimal.Decimal `gorm:"type:DECIMAL(38,0)"`
	EndTime       uint64

	Raw  []byte          `gorm:"type:varbinary(152)"`
	Rent decimal.Decimal `gorm:"type:DECIMAL(38,0)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Auction) TableName() string {
	return "auctions"
}
