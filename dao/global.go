package dao

import (
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"
	"gorm.io/gorm"

	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/model"
)

var (
	ErrAlreadyInitialized = xerrors.New("global config has been initialized")
	ErrNotInitialized     = xerrors.New("global config has not been initialized")
)

// InitGlobalConfig writes the administrator identity. It succeeds once.
func InitGlobalConfig(db *gorm.DB, admin solana.PublicKey) error {
	if admin.IsZero() {
		return xerrors.New("super admin must be set")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.GlobalConfig{}).Count(&count).Error; err != nil {
			return err
		}
		if count != 0 {
			return ErrAlreadyInitialized
		}
		return tx.Create(&model.GlobalConfig{SuperAdmin: admin.String()}).Error
	})
}

func GetGlobalConfig(db *gorm.DB) (common.GlobalConfig, error) {
	var rows []model.GlobalConfig
	if err := db.Model(&model.GlobalConfig{}).Order("id asc").Find(&rows).Error; err != nil {
		return common.GlobalConfig{}, err
	}
	if len(rows) == 0 {
		return common.GlobalConfig{}, ErrNotInitialized
	}
	if len(rows) != 1 {
		log.Errorw("global config has several rows", "count", len(rows))
		return common.GlobalConfig{}, xerrors.Errorf("global config has %d rows", len(rows))
	}
	admin, err := solana.PublicKeyFromBase58(rows[0].SuperAdmin)
	if err != nil {
		return common.GlobalConfig{}, xerrors.Errorf("super admin: %w", err)
	}
	return common.GlobalConfig{SuperAdmin: admin}, nil
}
