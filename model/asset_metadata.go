package model

import "gorm.io/datatypes"

type AssetMetadata struct {
	ID                   uint64 `gorm:"primaryKey;autoIncrement:true"`
	Address              string `gorm:"uniqueIndex;type:varchar(64)"`
	Mint                 string `gorm:"uniqueIndex;type:varchar(64)"`
	CollectionKey        string `gorm:"type:varchar(64)"`
	CollectionVerified   bool
	Creators             datatypes.JSON // JSON null when the asset carries no creator list
	SellerFeeBasisPoints uint16
}

func (AssetMetadata) TableName() string {
	return "asset_metadata"
}
