// Package royalty splits a winning bid between creators, the platform and the
// seller. All divisions floor; the pool remainder left by rounding is not
// redistributed and stays with whoever sweeps the escrow last.
package royalty

import (
	"golang.org/x/xerrors"

	"github.com/rqzrqh/nft_auction/common"
)

// SharePercentDenominator is the unit of creator shares.
const SharePercentDenominator = 100

type Distribution struct {
	Bid            uint64
	RoyaltyPool    uint64
	PlatformFee    uint64
	SellerProceeds uint64
	Shares         []uint64
}

// Allocated is the sum of every creator share plus fee and seller proceeds.
func (d *Distribution) Allocated() uint64 {
	total := d.PlatformFee + d.SellerProceeds
	for _, s := range d.Shares {
		total += s
	}
	return total
}

// Dust is the part of the royalty pool no creator share covers.
func (d *Distribution) Dust() uint64 {
	return d.Bid - d.Allocated()
}

func Distribute(bid uint64, feeBasisPoints uint16, feePercent, permyriad uint64, shares []uint8) (*Distribution, error) {
	pool, err := common.MulDiv(bid, uint64(feeBasisPoints), permyriad)
	if err != nil {
		return nil, err
	}
	fee, err := common.MulDiv(bid, feePercent, 100)
	if err != nil {
		return nil, err
	}
	rest, err := common.CheckedSub(bid, pool)
	if err != nil {
		return nil, xerrors.Errorf("royalty pool %d over bid %d: %w", pool, bid, err)
	}
	proceeds, err := common.CheckedSub(rest, fee)
	if err != nil {
		return nil, xerrors.Errorf("royalty %d and fee %d over bid %d: %w", pool, fee, bid, err)
	}

	d := &Distribution{
		Bid:            bid,
		RoyaltyPool:    pool,
		PlatformFee:    fee,
		SellerProceeds: proceeds,
		Shares:         make([]uint64, len(shares)),
	}

	var paid uint64
	for i, share := range shares {
		if share == 0 {
			continue
		}
		amount, err := common.MulDiv(pool, uint64(share), SharePercentDenominator)
		if err != nil {
			return nil, err
		}
		if paid, err = common.CheckedAdd(paid, amount); err != nil {
			return nil, err
		}
		d.Shares[i] = amount
	}
	if paid > pool {
		return nil, xerrors.Errorf("creator shares %d over royalty pool %d: %w", paid, pool, common.ErrArithmeticOverflow)
	}

	return d, nil
}
