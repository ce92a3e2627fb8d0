package lbmath_test

import (
	"errors"
	"testing"

	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/holiman/uint256"
	"github.com/zeebo/assert"
	"lukechampine.com/uint128"
)

func TestLiquidityConfigurationEncoding(t *testing.T) {
	config := lbmath.LiquidityConfiguration{
		DistributionX: 500_000_000_000_000_000,
		DistributionY: 250_000_000_000_000_000,
		ID:            lbmath.RealIDShift,
	}

	word, err := config.Encode()
	assert.NoError(t, err)

	want := new(uint256.Int).Lsh(uint256.NewInt(config.DistributionX), 88)
	want.Or(want, new(uint256.Int).Lsh(uint256.NewInt(config.DistributionY), 24))
	want.Or(want, uint256.NewInt(lbmath.RealIDShift))
	assert.Equal(t, word.Dec(), want.Dec())

	decoded, err := lbmath.DecodeLiquidityConfiguration(word)
	assert.NoError(t, err)
	assert.Equal(t, decoded, config)
}

func TestLiquidityConfigurationInvalid(t *testing.T) {
	tooMuch := uint64(1_000_000_000_000_000_001)

	for _, config := range []lbmath.LiquidityConfiguration{
		{DistributionX: tooMuch},
		{DistributionY: tooMuch},
		{ID: 1 << 24},
	} {
		_, err := config.Encode()
		assert.True(t, errors.Is(err, lbmath.ErrInvalidLiquidityConfig))
		_, _, err = config.GetAmountsAndID(lbmath.Amounts{})
		assert.True(t, errors.Is(err, lbmath.ErrInvalidLiquidityConfig))
	}

	words := []*uint256.Int{
		new(uint256.Int).Lsh(uint256.NewInt(1), 152),
		new(uint256.Int).Lsh(uint256.NewInt(tooMuch), 88),
		new(uint256.Int).Lsh(uint256.NewInt(tooMuch), 24),
	}
	for _, word := range words {
		_, err := lbmath.DecodeLiquidityConfiguration(word)
		assert.True(t, errors.Is(err, lbmath.ErrInvalidLiquidityConfig))
	}
}

func TestGetAmountsAndID(t *testing.T) {
	config := lbmath.LiquidityConfiguration{
		DistributionX: 500_000_000_000_000_000,
		DistributionY: 250_000_000_000_000_000,
		ID:            lbmath.RealIDShift + 1,
	}

	amounts, id, err := config.GetAmountsAndID(lbmath.Amounts{X: n(1000), Y: n(3)})
	assert.NoError(t, err)
	assert.Equal(t, id, uint32(lbmath.RealIDShift+1))
	assert.Equal(t, amounts.X, n(500))
	assert.Equal(t, amounts.Y, n(0))

	full := lbmath.LiquidityConfiguration{DistributionX: 1_000_000_000_000_000_000}
	amounts, _, err = full.GetAmountsAndID(lbmath.Amounts{X: uint128.Max, Y: uint128.Max})
	assert.NoError(t, err)
	assert.Equal(t, amounts.X, uint128.Max)
	assert.True(t, amounts.Y.IsZero())
}
