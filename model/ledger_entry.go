package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEntry struct {
	ID       uint64          `gorm:"primaryKey;autoIncrement:true"`
	EntryID  string          `gorm:"uniqueIndex;type:char(36)"`
	Kind     string          `gorm:"index;type:varchar(16)"`
	Account  string          `gorm:"index;type:varchar(64)"`
	From     string          `gorm:"column:from_addr;index;type:varchar(64)"`
	To       string          `gorm:"column:to_addr;index;type:varchar(64)"`
	Mint     string          `gorm:"type:varchar(64)"`
	Amount   decimal.Decimal `gorm:"type:DECIMAL(38,0)"`
	Lamports decimal.Decimal `gorm:"type:DECIMAL(38,0)"`

	CreatedAt time.Time
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
