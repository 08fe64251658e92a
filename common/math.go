package common

import (
	"math/bits"

	"golang.org/x/xerrors"
)

func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, xerrors.Errorf("%d + %d: %w", a, b, ErrArithmeticOverflow)
	}
	return sum, nil
}

func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, xerrors.Errorf("%d - %d: %w", a, b, ErrArithmeticOverflow)
	}
	return diff, nil
}

// MulDiv returns floor(a*b/d) with a 128-bit intermediate product.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, xerrors.Errorf("%d * %d / 0: %w", a, b, ErrArithmeticOverflow)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, xerrors.Errorf("%d * %d / %d: %w", a, b, d, ErrArithmeticOverflow)
	}
	quo, _ := bits.Div64(hi, lo, d)
	return quo, nil
}

// MulCmp compares a*b against c*d without overflow.
func MulCmp(a, b, c, d uint64) int {
	h1, l1 := bits.Mul64(a, b)
	h2, l2 := bits.Mul64(c, d)
	switch {
	case h1 < h2:
		return -1
	case h1 > h2:
		return 1
	case l1 < l2:
		return -1
	case l1 > l2:
		return 1
	}
	return 0
}
