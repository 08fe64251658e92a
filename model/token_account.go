package model

import "github.com/shopspring/decimal"

type TokenAccount struct {
	ID       uint64          `gorm:"primaryKey;autoIncrement:true"`
	Address  string          `gorm:"uniqueIndex;type:varchar(64)"`
	Owner    string          `gorm:"index;type:varchar(64)"`
	Mint     string          `gorm:"index;type:varchar(64)"`
	Amount   decimal.Decimal `gorm:"type:DECIMAL(38,0)"`
	Lamports decimal.Decimal `gorm:"type:DECIMAL(38,0)"` // rent reserved
}

func (TokenAccount) TableName() string {
	return "token_accounts"
}

// SystemAccount is the native lamport balance of a wallet.
type SystemAccount struct {
	ID       uint64          `gorm:"primaryKey;autoIncrement:true"`
	Owner    string          `gorm:"uniqueIndex;type:varchar(64)"`
	Lamports decimal.Decimal `gorm:"type:DECIMAL(38,0)"`
}

func (SystemAccount) TableName() string {
	return "system_accounts"
}
