package lbmath

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Prices are unsigned 128.128 binary fixed-point numbers: a price of 1 is Scale.
// A bin id is a 24-bit unsigned number whose price is base^(id - 2^23), with
// base = 1 + binStep / BasisPointMax.

const (
	// RealIDShift is the id of the bin whose price is 1
	RealIDShift = 1 << 23

	maxID       = 1<<24 - 1
	maxPowAbsY  = 0x100000
	logScaleOff = 127
)

var (
	maxUint256Wide  = new(uint256.Int).SetAllOne()
	logScale        = new(uint256.Int).Lsh(uint256.NewInt(1), logScaleOff)
	logScaleSquared = new(uint256.Int).Lsh(uint256.NewInt(1), 2*logScaleOff)
	logScaleDouble  = new(uint256.Int).Lsh(uint256.NewInt(1), logScaleOff+1)
)

// GetBase returns 1 + binStep / BasisPointMax in 128.128.
func GetBase(binStep uint16) *uint256.Int {
	step := new(uint256.Int).Lsh(uint256.NewInt(uint64(binStep)), ScaleOffset)
	step.Div(step, basisPointMaxWide)
	return step.Add(step, Scale)
}

// GetExponent returns id - RealIDShift.
func GetExponent(id uint32) int64 {
	return int64(id) - RealIDShift
}

// GetPriceFromID returns the 128.128 price of the bin id for the given bin step.
func GetPriceFromID(id uint32, binStep uint16) (*uint256.Int, error) {
	return Pow(GetBase(binStep), GetExponent(id))
}

// GetIDFromPrice returns the id of the bin holding the 128.128 price, rounded
// toward the id of price 1.
func GetIDFromPrice(price *uint256.Int, binStep uint16) (uint32, error) {
	priceLog, priceNeg, err := Log2(price)
	if err != nil {
		return 0, err
	}
	baseLog, baseNeg, err := Log2(GetBase(binStep))
	if err != nil {
		return 0, err
	}
	if baseLog.IsZero() {
		return 0, fmt.Errorf("%w: log2 of base for bin step %d", ErrDivisionByZero, binStep)
	}

	quotient := new(uint256.Int).Div(priceLog, baseLog)
	if !quotient.IsUint64() || quotient.Uint64() > maxID {
		return 0, fmt.Errorf("%w: price %s", ErrIDShiftOverflow, price.Dec())
	}

	realID := int64(quotient.Uint64())
	if priceNeg != baseNeg {
		realID = -realID
	}

	id := RealIDShift + realID
	if id < 0 || id > maxID {
		return 0, fmt.Errorf("%w: id %d", ErrIDShiftOverflow, id)
	}
	return uint32(id), nil
}

// ConvertDecimalPriceTo128x128 converts a price with 18 decimals to 128.128.
func ConvertDecimalPriceTo128x128(price *uint256.Int) (*uint256.Int, error) {
	return ShiftDivRoundDown(price, ScaleOffset, precisionWide)
}

// Convert128x128PriceToDecimal converts a 128.128 price to a price with 18 decimals.
func Convert128x128PriceToDecimal(price *uint256.Int) (*uint256.Int, error) {
	return MulShiftRoundDown(price, precisionWide, ScaleOffset)
}

// Pow returns x^y for a 128.128 x. When x is above 2^128 it computes
// 1 / (1/x)^y so intermediate products stay within 256 bits.
// |y| must be below 2^20.
func Pow(x *uint256.Int, y int64) (*uint256.Int, error) {
	if y == 0 {
		return new(uint256.Int).Set(Scale), nil
	}

	invert := y < 0
	absY := uint64(y)
	if invert {
		absY = uint64(-y)
	}
	if absY >= maxPowAbsY {
		return nil, fmt.Errorf("%w: exponent %d out of range", ErrPowUnderflow, y)
	}

	squared := new(uint256.Int).Set(x)
	if x.Gt(maxUint128Wide) {
		squared.Div(maxUint256Wide, squared)
		invert = !invert
	}

	result := new(uint256.Int).Set(Scale)
	for i := 0; i < 20; i++ {
		if absY&(1<<i) != 0 {
			result.Mul(result, squared)
			result.Rsh(result, ScaleOffset)
		}
		squared.Mul(squared, squared)
		squared.Rsh(squared, ScaleOffset)
	}

	if result.IsZero() {
		return nil, fmt.Errorf("%w: %s^%d", ErrPowUnderflow, x.Dec(), y)
	}
	if invert {
		return result.Div(maxUint256Wide, result), nil
	}
	return result, nil
}

// Log2 returns the binary logarithm of the 128.128 number x as a signed
// 128.128 number, split into magnitude and sign. The fractional part comes
// from the iterative approximation on a 129.127 copy of x, so the last bits
// are not exact.
func Log2(x *uint256.Int) (magnitude *uint256.Int, negative bool, err error) {
	if x.IsZero() {
		return nil, false, ErrLogUnderflow
	}
	if x.Eq(uint256.NewInt(1)) {
		return uint256.NewInt(128), true, nil
	}

	v := new(uint256.Int).Rsh(x, 1)
	if v.Lt(logScale) {
		negative = true
		v.Div(logScaleSquared, v)
	}

	n := uint(new(uint256.Int).Rsh(v, logScaleOff).BitLen() - 1)
	result := new(uint256.Int).Lsh(uint256.NewInt(uint64(n)), logScaleOff)

	y := new(uint256.Int).Rsh(v, n)
	if !y.Eq(logScale) {
		delta := new(uint256.Int).Lsh(uint256.NewInt(1), logScaleOff-1)
		for !delta.IsZero() {
			y.Mul(y, y)
			y.Rsh(y, logScaleOff)
			if !y.Lt(logScaleDouble) {
				result.Add(result, delta)
				y.Rsh(y, 1)
			}
			delta.Rsh(delta, 1)
		}
	}

	result.Lsh(result, 1)
	if result.IsZero() {
		negative = false
	}
	return result, negative, nil
}
