package initdb

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gagliardetto/solana-go"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/dao"
)

func TestInitDatabase(t *testing.T) {
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open("file:initdb?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	mr := miniredis.RunT(t)
	rds := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rds.Close()

	admin := solana.NewWallet().PublicKey()
	platform, err := auction.NewPlatform(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	rent := common.DefaultParams().AccountRent

	require.NoError(t, InitDatabase(ctx, db, rds, admin, platform, rent))

	global, err := dao.GetGlobalConfig(db)
	require.NoError(t, err)
	require.Equal(t, admin, global.SuperAdmin)

	treasury, err := dao.NewDao(db, rent).Account(ctx, platform.Treasury)
	require.NoError(t, err)
	require.Equal(t, platform.TreasuryWallet, treasury.Owner)
	require.Equal(t, platform.SettlementMint, treasury.Mint)
	require.Zero(t, treasury.Amount)

	require.ErrorIs(t, InitDatabase(ctx, db, nil, admin, platform, rent), ErrInitialized)
}
