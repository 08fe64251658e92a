package common

import (
	"time"

	"golang.org/x/xerrors"
)

const Day = 24 * time.Hour

// IncrementMode selects how the relative minimum increment is evaluated.
type IncrementMode uint8

const (
	// IncrementStrict requires amount >= current * (100 + pct) / 100.
	IncrementStrict IncrementMode = iota
	// IncrementCompat evaluates current * (1 + pct/100) in integer arithmetic,
	// which truncates to current * 1 for pct < 100.
	IncrementCompat
)

func (m IncrementMode) String() string {
	switch m {
	case IncrementStrict:
		return "strict"
	case IncrementCompat:
		return "compat"
	default:
		return "unknown"
	}
}

func ParseIncrementMode(s string) (IncrementMode, error) {
	switch s {
	case "", "strict":
		return IncrementStrict, nil
	case "compat":
		return IncrementCompat, nil
	}
	return 0, xerrors.Errorf("unknown increment mode %q", s)
}

type Params struct {
	MinDuration     time.Duration
	MaxDuration     time.Duration
	AntiSnipeWindow time.Duration

	FeePercent uint64
	Permyriad  uint64

	MinIncrement        uint64
	MinIncrementPercent uint64
	IncrementMode       IncrementMode

	// lamports reserved for an auction record and for a token account
	RecordRent  uint64
	AccountRent uint64
}

func DefaultParams() Params {
	return Params{
		MinDuration:         Day,
		MaxDuration:         14 * Day,
		AntiSnipeWindow:     10 * time.Minute,
		FeePercent:          2,
		Permyriad:           10000,
		MinIncrement:        10_000_000_000,
		MinIncrementPercent: 5,
		IncrementMode:       IncrementStrict,
		RecordRent:          2_004_480,
		AccountRent:         2_039_280,
	}
}

func (p Params) Validate() error {
	if p.MinDuration < time.Second || p.MaxDuration < p.MinDuration {
		return xerrors.Errorf("invalid duration range [%v, %v]", p.MinDuration, p.MaxDuration)
	}
	if p.AntiSnipeWindow < 0 {
		return xerrors.New("anti-snipe window must not be negative")
	}
	if p.Permyriad == 0 {
		return xerrors.New("permyriad must be positive")
	}
	if p.FeePercent > 100 {
		return xerrors.Errorf("fee percent %d over 100", p.FeePercent)
	}
	if p.MinIncrementPercent > 10000 {
		return xerrors.Errorf("min increment percent %d over 10000", p.MinIncrementPercent)
	}
	if p.IncrementMode != IncrementStrict && p.IncrementMode != IncrementCompat {
		return xerrors.Errorf("unknown increment mode %d", p.IncrementMode)
	}
	return nil
}

// Seconds converts a duration to whole clock seconds.
func Seconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d / time.Second)
}
