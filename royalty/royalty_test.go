package royalty

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rqzrqh/nft_auction/common"
)

func TestDistribute(t *testing.T) {
	tests := []struct {
		name     string
		bid      uint64
		bps      uint16
		shares   []uint8
		pool     uint64
		fee      uint64
		proceeds uint64
		split    []uint64
		dust     uint64
	}{
		{
			name:     "single creator",
			bid:      1_000_000,
			bps:      500,
			shares:   []uint8{100},
			pool:     50_000,
			fee:      20_000,
			proceeds: 930_000,
			split:    []uint64{50_000},
		},
		{
			name:     "three creators leave one percent",
			bid:      1_000_000,
			bps:      1000,
			shares:   []uint8{33, 33, 33},
			pool:     100_000,
			fee:      20_000,
			proceeds: 880_000,
			split:    []uint64{33_000, 33_000, 33_000},
			dust:     1_000,
		},
		{
			name:     "zero share is skipped",
			bid:      999,
			bps:      250,
			shares:   []uint8{0, 100},
			pool:     24,
			fee:      19,
			proceeds: 956,
			split:    []uint64{0, 24},
		},
		{
			name:     "floors everywhere",
			bid:      101,
			bps:      333,
			shares:   []uint8{50, 50},
			pool:     3,
			fee:      2,
			proceeds: 96,
			split:    []uint64{1, 1},
			dust:     1,
		},
		{
			name:     "no royalty",
			bid:      100,
			bps:      0,
			shares:   nil,
			fee:      2,
			proceeds: 98,
			split:    []uint64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Distribute(tt.bid, tt.bps, 2, 10000, tt.shares)
			require.NoError(t, err)
			require.Equal(t, tt.pool, d.RoyaltyPool)
			require.Equal(t, tt.fee, d.PlatformFee)
			require.Equal(t, tt.proceeds, d.SellerProceeds)
			require.Equal(t, tt.split, d.Shares)
			require.Equal(t, tt.dust, d.Dust())
			require.Equal(t, tt.bid, d.Allocated()+d.Dust())
		})
	}
}

func TestDistributeLargeBid(t *testing.T) {
	d, err := Distribute(math.MaxUint64, 10000, 0, 10000, []uint8{100})
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), d.RoyaltyPool)
	require.Zero(t, d.SellerProceeds)
}

func TestDistributeOverAllocated(t *testing.T) {
	// royalty plus fee above the bid
	_, err := Distribute(100, 9900, 2, 10000, []uint8{100})
	require.ErrorIs(t, err, common.ErrArithmeticOverflow)

	// shares above 100 percent
	_, err = Distribute(10_000, 1000, 2, 10000, []uint8{60, 60})
	require.ErrorIs(t, err, common.ErrArithmeticOverflow)
}
