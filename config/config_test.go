package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/rqzrqh/nft_auction/common"
)

func TestDefaultMatchesEngineDefaults(t *testing.T) {
	p, err := Default().EngineParams()
	require.NoError(t, err)
	require.Equal(t, common.DefaultParams(), p)
}

func TestDecode(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	treasury := solana.NewWallet().PublicKey()

	cfg, err := Decode(`
[params]
min_duration = "2h"
anti_snipe_window = "5m"
increment_mode = "compat"

[redis]
addr = "10.0.0.1:6379"
db = 2

[platform]
program_id = "` + programID.String() + `"
settlement_mint = "` + mint.String() + `"
treasury = "` + treasury.String() + `"
decimals = 6
`)
	require.NoError(t, err)

	p, err := cfg.EngineParams()
	require.NoError(t, err)
	require.Equal(t, 2*time.Hour, p.MinDuration)
	require.Equal(t, 14*common.Day, p.MaxDuration)
	require.Equal(t, 5*time.Minute, p.AntiSnipeWindow)
	require.Equal(t, common.IncrementCompat, p.IncrementMode)
	require.Equal(t, uint64(2), p.FeePercent)

	require.Equal(t, "10.0.0.1:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Redis.DB)
	require.Equal(t, int32(6), cfg.Platform.Decimals)

	platform, err := cfg.EnginePlatform()
	require.NoError(t, err)
	require.Equal(t, mint, platform.SettlementMint)
	require.Equal(t, treasury, platform.TreasuryWallet)
	require.False(t, platform.Treasury.IsZero())
}

func TestInvalidValues(t *testing.T) {
	_, err := Decode(`[params]
min_duration = "one day"`)
	require.Error(t, err)

	cfg, err := Decode(`[params]
increment_mode = "lenient"`)
	require.NoError(t, err)
	_, err = cfg.EngineParams()
	require.Error(t, err)

	cfg, err = Decode(`[params]
min_duration = "48h"
max_duration = "24h"`)
	require.NoError(t, err)
	_, err = cfg.EngineParams()
	require.Error(t, err)

	_, err = Default().EnginePlatform()
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "auction.toml")
	require.NoError(t, os.WriteFile(path, []byte("[database]\ndsn = \"user@tcp(db:3306)/auctions\"\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "user@tcp(db:3306)/auctions", cfg.Database.DSN)

	require.NoError(t, os.WriteFile(path, []byte("[database]\nurl = \"x\"\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
