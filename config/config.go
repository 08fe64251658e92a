// Package config loads the engine settings from a TOML file.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/auction"
	"github.com/rqzrqh/nft_auction/common"
)

// Duration reads "24h" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return xerrors.Errorf("duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Params struct {
	MinDuration         Duration `toml:"min_duration"`
	MaxDuration         Duration `toml:"max_duration"`
	AntiSnipeWindow     Duration `toml:"anti_snipe_window"`
	FeePercent          uint64   `toml:"fee_percent"`
	Permyriad           uint64   `toml:"permyriad"`
	MinIncrement        uint64   `toml:"min_increment"`
	MinIncrementPercent uint64   `toml:"min_increment_percent"`
	IncrementMode       string   `toml:"increment_mode"`
	RecordRent          uint64   `toml:"record_rent"`
	AccountRent         uint64   `toml:"account_rent"`
}

type Database struct {
	DSN string `toml:"dsn"`
}

type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type Platform struct {
	ProgramID      string `toml:"program_id"`
	SettlementMint string `toml:"settlement_mint"`
	Treasury       string `toml:"treasury"`
	// decimals of the settlement mint, used to scale CLI amounts
	Decimals int32 `toml:"decimals"`
}

type Config struct {
	Params   Params   `toml:"params"`
	Database Database `toml:"database"`
	Redis    Redis    `toml:"redis"`
	Platform Platform `toml:"platform"`
}

func Default() *Config {
	p := common.DefaultParams()
	return &Config{
		Params: Params{
			MinDuration:         Duration{p.MinDuration},
			MaxDuration:         Duration{p.MaxDuration},
			AntiSnipeWindow:     Duration{p.AntiSnipeWindow},
			FeePercent:          p.FeePercent,
			Permyriad:           p.Permyriad,
			MinIncrement:        p.MinIncrement,
			MinIncrementPercent: p.MinIncrementPercent,
			IncrementMode:       p.IncrementMode.String(),
			RecordRent:          p.RecordRent,
			AccountRent:         p.AccountRent,
		},
		Database: Database{DSN: "root:123456@tcp(127.0.0.1:3306)/nft_auction?parseTime=true"},
		Redis:    Redis{Addr: "127.0.0.1:6379"},
		Platform: Platform{Decimals: 9},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, xerrors.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, xerrors.Errorf("load config %s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}

// Decode parses TOML text over the defaults.
func Decode(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) EngineParams() (common.Params, error) {
	mode, err := common.ParseIncrementMode(c.Params.IncrementMode)
	if err != nil {
		return common.Params{}, err
	}
	p := common.Params{
		MinDuration:         c.Params.MinDuration.Duration,
		MaxDuration:         c.Params.MaxDuration.Duration,
		AntiSnipeWindow:     c.Params.AntiSnipeWindow.Duration,
		FeePercent:          c.Params.FeePercent,
		Permyriad:           c.Params.Permyriad,
		MinIncrement:        c.Params.MinIncrement,
		MinIncrementPercent: c.Params.MinIncrementPercent,
		IncrementMode:       mode,
		RecordRent:          c.Params.RecordRent,
		AccountRent:         c.Params.AccountRent,
	}
	if err := p.Validate(); err != nil {
		return common.Params{}, err
	}
	return p, nil
}

func (c *Config) EnginePlatform() (auction.Platform, error) {
	programID, err := solana.PublicKeyFromBase58(c.Platform.ProgramID)
	if err != nil {
		return auction.Platform{}, xerrors.Errorf("platform program_id: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(c.Platform.SettlementMint)
	if err != nil {
		return auction.Platform{}, xerrors.Errorf("platform settlement_mint: %w", err)
	}
	treasury, err := solana.PublicKeyFromBase58(c.Platform.Treasury)
	if err != nil {
		return auction.Platform{}, xerrors.Errorf("platform treasury: %w", err)
	}
	return auction.NewPlatform(programID, mint, treasury)
}
