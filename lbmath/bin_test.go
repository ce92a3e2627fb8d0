package lbmath_test

import (
	"errors"
	"testing"

	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/holiman/uint256"
	"github.com/zeebo/assert"
	"lukechampine.com/uint128"
)

func swapParams(t *testing.T, baseFactor uint16) lbmath.PairParameters {
	t.Helper()
	s := testStatic
	s.BaseFactor = baseFactor
	p, err := lbmath.PairParameters{}.SetStaticFeeParameters(s)
	assert.NoError(t, err)
	return p
}

func TestGetAmounts(t *testing.T) {
	reserves := lbmath.Amounts{X: n(1_000_000), Y: n(1_000_000)}
	params := swapParams(t, 5000)

	cases := []struct {
		name     string
		swapForY bool
		activeID uint32
		in       uint64
		wantIn   string
		wantOut  string
		wantFee  string
	}{
		{name: "x_partial", swapForY: true, activeID: lbmath.RealIDShift, in: 1000, wantIn: "1000", wantOut: "999", wantFee: "1"},
		{name: "x_drains_bin", swapForY: true, activeID: lbmath.RealIDShift, in: 10_000_000, wantIn: "1000501", wantOut: "1000000", wantFee: "501"},
		{name: "y_partial", swapForY: false, activeID: lbmath.RealIDShift + 100, in: 5000, wantIn: "5000", wantOut: "4521", wantFee: "3"},
		{name: "y_drains_bin", swapForY: false, activeID: lbmath.RealIDShift + 100, in: 1_000_000_000, wantIn: "1105669", wantOut: "1000000", wantFee: "553"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amountsIn := lbmath.AmountsY(n(tc.in))
			if tc.swapForY {
				amountsIn = lbmath.AmountsX(n(tc.in))
			}

			got, err := lbmath.GetAmounts(reserves, params, 10, tc.swapForY, tc.activeID, amountsIn)
			assert.NoError(t, err)

			assert.Equal(t, got.InWithFees.Get(tc.swapForY).String(), tc.wantIn)
			assert.Equal(t, got.OutOfBin.Get(!tc.swapForY).String(), tc.wantOut)
			assert.Equal(t, got.Fees.Get(tc.swapForY).String(), tc.wantFee)

			assert.True(t, got.InWithFees.Get(!tc.swapForY).IsZero())
			assert.True(t, got.OutOfBin.Get(tc.swapForY).IsZero())
			assert.True(t, got.Fees.Get(!tc.swapForY).IsZero())
		})
	}
}

func TestGetAmountsFeeTooLarge(t *testing.T) {
	reserves := lbmath.Amounts{X: n(1_000_000), Y: n(1_000_000)}
	params := swapParams(t, 65535)

	_, err := lbmath.GetAmounts(reserves, params, 200, true, lbmath.RealIDShift, lbmath.AmountsX(n(1000)))
	assert.True(t, errors.Is(err, lbmath.ErrFeeTooLarge))
}

func TestGetCompositionFees(t *testing.T) {
	reserves := lbmath.Amounts{X: n(1_000_000_000_000), Y: n(1_000_000_000_000)}
	params := swapParams(t, 5000)
	totalSupply := u256("680564733841876926926749214863536422912000000000000")
	shares := u256("340282366920938463463374607431768211456000000000")

	fees, err := lbmath.GetCompositionFees(reserves, params, 10, lbmath.AmountsX(n(1_000_000_000)), totalSupply, shares)
	assert.NoError(t, err)
	assert.Equal(t, fees.X.String(), "250000")
	assert.True(t, fees.Y.IsZero())

	fees, err = lbmath.GetCompositionFees(reserves, params, 10, lbmath.AmountsY(n(1_000_000_000)), totalSupply, shares)
	assert.NoError(t, err)
	assert.True(t, fees.X.IsZero())
	assert.Equal(t, fees.Y.String(), "250000")

	fees, err = lbmath.GetCompositionFees(reserves, params, 10, lbmath.AmountsX(n(1_000_000_000)), totalSupply, new(uint256.Int))
	assert.NoError(t, err)
	assert.True(t, fees.IsZero())
	// a balanced deposit matches the bin composition
	balancedShares := u256("680564733841876926926749214863536422912000000000")
	fees, err = lbmath.GetCompositionFees(reserves, params, 10,
		lbmath.Amounts{X: n(1_000_000_000), Y: n(1_000_000_000)}, totalSupply, balancedShares)
	assert.NoError(t, err)
	assert.True(t, fees.IsZero())

	// shares worth more than the deposit on both sides: received exceeds amountsIn for X
	// and Y, so neither side is charged and nothing underflows
	fees, err = lbmath.GetCompositionFees(reserves, params, 10,
		lbmath.Amounts{X: n(1), Y: n(1)}, totalSupply, balancedShares)
	assert.NoError(t, err)
	assert.True(t, fees.IsZero())
}

func TestGetSharesAndEffectiveAmountsIn(t *testing.T) {
	reserves := lbmath.Amounts{X: n(1_000_000), Y: n(1_000_000)}
	totalSupply, err := lbmath.GetLiquidity(reserves, lbmath.Scale)
	assert.NoError(t, err)

	shares, effective, err := lbmath.GetSharesAndEffectiveAmountsIn(reserves, lbmath.AmountsX(n(1000)), lbmath.Scale, totalSupply)
	assert.NoError(t, err)
	assert.Equal(t, shares.Dec(), "340282366920938463463374607431768211456000")
	assert.Equal(t, effective, lbmath.AmountsX(n(1000)))

	// an empty bin mints the user's liquidity as shares
	shares, effective, err = lbmath.GetSharesAndEffectiveAmountsIn(lbmath.Amounts{}, lbmath.AmountsY(n(7)), lbmath.Scale, new(uint256.Int))
	assert.NoError(t, err)
	assert.Equal(t, shares.Dec(), "2381976568446569244243622252022377480192")
	assert.Equal(t, effective, lbmath.AmountsY(n(7)))
}

func TestGetAmountOutOfBin(t *testing.T) {
	totalSupply, err := lbmath.GetLiquidity(lbmath.Amounts{X: n(1_000_000), Y: n(1_000_000)}, lbmath.Scale)
	assert.NoError(t, err)
	burn := new(uint256.Int).Mul(uint256.NewInt(100_000), lbmath.Scale)

	out, err := lbmath.GetAmountOutOfBin(lbmath.Amounts{X: n(1_000_000), Y: n(2_000_000)}, burn, totalSupply)
	assert.NoError(t, err)
	assert.Equal(t, out.X.String(), "50000")
	assert.Equal(t, out.Y.String(), "100000")

	_, err = lbmath.GetAmountOutOfBin(lbmath.AmountsX(n(1)), burn, new(uint256.Int))
	assert.True(t, errors.Is(err, lbmath.ErrDivisionByZero))
}

func TestGetLiquidityOverflow(t *testing.T) {
	_, err := lbmath.GetLiquidity(lbmath.AmountsX(n(2)), new(uint256.Int).SetAllOne())
	assert.True(t, errors.Is(err, lbmath.ErrLiquidityOverflow))

	_, err = lbmath.GetLiquidity(lbmath.Amounts{X: n(1), Y: uint128.Max}, new(uint256.Int).SetAllOne())
	assert.True(t, errors.Is(err, lbmath.ErrLiquidityOverflow))
}

func TestVerifyAmounts(t *testing.T) {
	active := uint32(lbmath.RealIDShift)

	assert.NoError(t, lbmath.VerifyAmounts(lbmath.AmountsY(n(1)), active, active-1))
	assert.NoError(t, lbmath.VerifyAmounts(lbmath.AmountsX(n(1)), active, active+1))
	assert.NoError(t, lbmath.VerifyAmounts(lbmath.Amounts{X: n(1), Y: n(1)}, active, active))

	err := lbmath.VerifyAmounts(lbmath.AmountsX(n(1)), active, active-1)
	assert.True(t, errors.Is(err, lbmath.ErrCompositionFactorFlawed))
	err = lbmath.VerifyAmounts(lbmath.AmountsY(n(1)), active, active+1)
	assert.True(t, errors.Is(err, lbmath.ErrCompositionFactorFlawed))
}

func TestAmounts(t *testing.T) {
	a := lbmath.Amounts{X: n(1), Y: n(0)}
	assert.False(t, lbmath.IsEmpty(a, true))
	assert.True(t, lbmath.IsEmpty(a, false))
	assert.False(t, a.IsZero())
	assert.True(t, lbmath.Amounts{}.IsZero())

	sum, err := a.Add(lbmath.AmountsY(n(5)))
	assert.NoError(t, err)
	assert.Equal(t, sum, lbmath.Amounts{X: n(1), Y: n(5)})

	_, err = lbmath.AmountsX(uint128.Max).Add(a)
	assert.True(t, errors.Is(err, lbmath.ErrAmountOverflow))
}
