package util

import (
	"context"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var ErrAmount = xerrors.New("invalid amount")

var maxUint64 = new(big.Int).SetUint64(^uint64(0))

// ReqContext is cancelled on SIGINT, SIGTERM or SIGHUP.
func ReqContext(cctx *cli.Context) context.Context {
	ctx, done := context.WithCancel(cctx.Context)
	sigChan := make(chan os.Signal, 2)
	go func() {
		<-sigChan
		done()
	}()
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	return ctx
}

// Decimal converts minor units to a DECIMAL(38,0) column value.
func Decimal(units uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), 0)
}

// Units converts a DECIMAL(38,0) column value back to minor units.
func Units(d decimal.Decimal) (uint64, error) {
	if d.IsNegative() {
		return 0, xerrors.Errorf("%s is negative: %w", d.String(), ErrAmount)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, xerrors.Errorf("%s is fractional: %w", d.String(), ErrAmount)
	}
	b := d.BigInt()
	if b.Cmp(maxUint64) > 0 {
		return 0, xerrors.Errorf("%s overflows uint64: %w", d.String(), ErrAmount)
	}
	return b.Uint64(), nil
}

// ParseAmount reads a token amount such as "12.5" into minor units.
func ParseAmount(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, xerrors.Errorf("%q: %v: %w", s, err, ErrAmount)
	}
	return Units(d.Shift(decimals))
}

// FormatAmount renders minor units as a token amount.
func FormatAmount(units uint64, decimals int32) string {
	return Decimal(units).Shift(-decimals).StringFixed(decimals)
}
