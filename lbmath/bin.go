package lbmath

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// Amounts holds an amount of token X and an amount of token Y.
type Amounts struct {
	X uint128.Uint128
	Y uint128.Uint128
}

// AmountsX returns Amounts holding only x.
func AmountsX(x uint128.Uint128) Amounts {
	return Amounts{X: x}
}

// AmountsY returns Amounts holding only y.
func AmountsY(y uint128.Uint128) Amounts {
	return Amounts{Y: y}
}

// Get returns X when x is true, Y otherwise.
func (a Amounts) Get(x bool) uint128.Uint128 {
	if x {
		return a.X
	}
	return a.Y
}

// IsZero reports whether both amounts are zero.
func (a Amounts) IsZero() bool {
	return a.X.IsZero() && a.Y.IsZero()
}

// Add returns a + b, failing if either side overflows 128 bits.
func (a Amounts) Add(b Amounts) (Amounts, error) {
	x, carryX := addUint128(a.X, b.X)
	y, carryY := addUint128(a.Y, b.Y)
	if carryX || carryY {
		return Amounts{}, fmt.Errorf("%w: adding amounts", ErrAmountOverflow)
	}
	return Amounts{X: x, Y: y}, nil
}

func addUint128(a, b uint128.Uint128) (uint128.Uint128, bool) {
	sum := a.AddWrap(b)
	return sum, sum.Cmp(a) < 0
}

// IsEmpty reports whether the X (isX) or Y reserve of a bin is empty.
func IsEmpty(reserves Amounts, isX bool) bool {
	return reserves.Get(isX).IsZero()
}

// GetAmountOutOfBin returns the amounts received when burning amountToBurn
// shares of a bin with totalSupply shares, rounded down.
func GetAmountOutOfBin(reserves Amounts, amountToBurn, totalSupply *uint256.Int) (Amounts, error) {
	var out Amounts
	if !reserves.X.IsZero() {
		x, err := MulDivRoundDown(amountToBurn, wide(reserves.X), totalSupply)
		if err != nil {
			return Amounts{}, err
		}
		out.X = clampUint128(x)
	}
	if !reserves.Y.IsZero() {
		y, err := MulDivRoundDown(amountToBurn, wide(reserves.Y), totalSupply)
		if err != nil {
			return Amounts{}, err
		}
		out.Y = clampUint128(y)
	}
	return out, nil
}

// GetLiquidity returns the constant sum liquidity price * x + y << 128.
func GetLiquidity(amounts Amounts, price *uint256.Int) (*uint256.Int, error) {
	liquidity := new(uint256.Int)
	if !amounts.X.IsZero() {
		var overflow bool
		if liquidity, overflow = liquidity.MulOverflow(price, wide(amounts.X)); overflow {
			return nil, ErrLiquidityOverflow
		}
	}
	if !amounts.Y.IsZero() {
		shifted := new(uint256.Int).Lsh(wide(amounts.Y), ScaleOffset)
		var overflow bool
		if liquidity, overflow = liquidity.AddOverflow(liquidity, shifted); overflow {
			return nil, ErrLiquidityOverflow
		}
	}
	return liquidity, nil
}

// GetSharesAndEffectiveAmountsIn returns the shares minted for amountsIn and
// the part of amountsIn actually used. The unused remainder is taken from Y
// first, as the quote asset is the more valuable one to give back.
func GetSharesAndEffectiveAmountsIn(
	reserves Amounts,
	amountsIn Amounts,
	price *uint256.Int,
	totalSupply *uint256.Int,
) (*uint256.Int, Amounts, error) {
	userLiquidity, err := GetLiquidity(amountsIn, price)
	if err != nil {
		return nil, Amounts{}, err
	}
	if totalSupply.IsZero() || userLiquidity.IsZero() {
		return userLiquidity, amountsIn, nil
	}

	binLiquidity, err := GetLiquidity(reserves, price)
	if err != nil {
		return nil, Amounts{}, err
	}
	if binLiquidity.IsZero() {
		return userLiquidity, amountsIn, nil
	}

	shares, err := MulDivRoundDown(userLiquidity, totalSupply, binLiquidity)
	if err != nil {
		return nil, Amounts{}, err
	}
	effectiveLiquidity, err := MulDivRoundUp(shares, binLiquidity, totalSupply)
	if err != nil {
		return nil, Amounts{}, err
	}

	effective := amountsIn
	if userLiquidity.Gt(effectiveLiquidity) {
		delta := new(uint256.Int).Sub(userLiquidity, effectiveLiquidity)

		if !delta.Lt(Scale) {
			deltaY := new(uint256.Int).Rsh(delta, ScaleOffset)
			if deltaY.Gt(wide(effective.Y)) {
				deltaY = wide(effective.Y)
			}
			effective.Y = effective.Y.Sub(clampUint128(deltaY))
			delta.Sub(delta, deltaY.Lsh(deltaY, ScaleOffset))
		}

		if !delta.Lt(price) {
			deltaX := new(uint256.Int).Div(delta, price)
			if deltaX.Gt(wide(effective.X)) {
				deltaX = wide(effective.X)
			}
			effective.X = effective.X.Sub(clampUint128(deltaX))
		}
	}

	return shares, effective, nil
}

// VerifyAmounts checks that bins below the active one only receive Y and bins
// above it only receive X.
func VerifyAmounts(amounts Amounts, activeID, id uint32) error {
	if (id < activeID && !amounts.X.IsZero()) || (id > activeID && !amounts.Y.IsZero()) {
		return fmt.Errorf("%w: id %d", ErrCompositionFactorFlawed, id)
	}
	return nil
}

// GetCompositionFees returns the fees charged when adding amountsIn to the
// active bin with a composition different from the bin's, as the deposit
// performs an implicit swap.
func GetCompositionFees(
	reserves Amounts,
	params PairParameters,
	binStep uint16,
	amountsIn Amounts,
	totalSupply *uint256.Int,
	shares *uint256.Int,
) (Amounts, error) {
	if shares.IsZero() {
		return Amounts{}, nil
	}

	newReserves, err := reserves.Add(amountsIn)
	if err != nil {
		return Amounts{}, err
	}
	newSupply, overflow := new(uint256.Int).AddOverflow(totalSupply, shares)
	if overflow {
		return Amounts{}, ErrLiquidityOverflow
	}
	received, err := GetAmountOutOfBin(newReserves, shares, newSupply)
	if err != nil {
		return Amounts{}, err
	}

	totalFee := params.GetTotalFee(binStep)
	switch {
	case received.X.Cmp(amountsIn.X) > 0 && amountsIn.Y.Cmp(received.Y) > 0:
		feeY, err := GetCompositionFee(amountsIn.Y.Sub(received.Y), totalFee)
		if err != nil {
			return Amounts{}, err
		}
		return AmountsY(feeY), nil
	case received.Y.Cmp(amountsIn.Y) > 0 && amountsIn.X.Cmp(received.X) > 0:
		feeX, err := GetCompositionFee(amountsIn.X.Sub(received.X), totalFee)
		if err != nil {
			return Amounts{}, err
		}
		return AmountsX(feeX), nil
	}
	return Amounts{}, nil
}

// SwapAmounts is the result of swapping inside a single bin.
type SwapAmounts struct {
	// InWithFees is the amount taken from the swapper, fees included.
	InWithFees Amounts
	// OutOfBin is the amount leaving the bin.
	OutOfBin Amounts
	// Fees is the part of InWithFees kept as fees.
	Fees Amounts
}

// GetAmounts returns the amounts swapped in the bin activeID when up to
// amountsInLeft is offered. swapForY selects the direction: X in, Y out.
// The fee is the pair's total fee; a total fee above MaxFee fails with
// ErrFeeTooLarge.
func GetAmounts(
	reserves Amounts,
	params PairParameters,
	binStep uint16,
	swapForY bool,
	activeID uint32,
	amountsInLeft Amounts,
) (SwapAmounts, error) {
	price, err := GetPriceFromID(activeID, binStep)
	if err != nil {
		return SwapAmounts{}, err
	}

	binReserveOut := reserves.Get(!swapForY)

	var maxIn *uint256.Int
	if swapForY {
		maxIn, err = ShiftDivRoundUp(wide(binReserveOut), ScaleOffset, price)
	} else {
		maxIn, err = MulShiftRoundUp(wide(binReserveOut), price, ScaleOffset)
	}
	if err != nil {
		return SwapAmounts{}, err
	}
	maxAmountIn := clampUint128(maxIn)

	totalFee := params.GetTotalFee(binStep)
	maxFee, err := GetFeeAmount(maxAmountIn, totalFee)
	if err != nil {
		return SwapAmounts{}, err
	}
	maxInWithFees := new(uint256.Int).Add(wide(maxAmountIn), wide(maxFee))

	amountIn := amountsInLeft.Get(swapForY)

	var fee, amountOut uint128.Uint128
	if !wide(amountIn).Lt(maxInWithFees) {
		fee = maxFee
		amountOut = binReserveOut
		if amountIn, err = narrow(maxInWithFees); err != nil {
			return SwapAmounts{}, err
		}
	} else {
		if fee, err = GetFeeAmountFrom(amountIn, totalFee); err != nil {
			return SwapAmounts{}, err
		}

		net := wide(amountIn.Sub(fee))
		var out *uint256.Int
		if swapForY {
			out, err = MulShiftRoundDown(net, price, ScaleOffset)
		} else {
			out, err = ShiftDivRoundDown(net, ScaleOffset, price)
		}
		if err != nil {
			return SwapAmounts{}, err
		}

		amountOut = clampUint128(out)
		if amountOut.Cmp(binReserveOut) > 0 {
			amountOut = binReserveOut
		}
	}

	if swapForY {
		return SwapAmounts{
			InWithFees: AmountsX(amountIn),
			OutOfBin:   AmountsY(amountOut),
			Fees:       AmountsX(fee),
		}, nil
	}
	return SwapAmounts{
		InWithFees: AmountsY(amountIn),
		OutOfBin:   AmountsX(amountOut),
		Fees:       AmountsY(fee),
	}, nil
}
