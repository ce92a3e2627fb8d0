package lbmath

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// wide widens a 128-bit amount to 256 bits
func wide(v uint128.Uint128) *uint256.Int {
	return &uint256.Int{v.Lo, v.Hi, 0, 0}
}

// narrow converts v back to 128 bits. It never truncates.
func narrow(v *uint256.Int) (uint128.Uint128, error) {
	if v[2] != 0 || v[3] != 0 {
		return uint128.Zero, fmt.Errorf("%w: %s", ErrAmountOverflow, v.Dec())
	}
	return uint128.New(v[0], v[1]), nil
}

// clampUint128 returns min(v, 2^128-1) as a 128-bit amount
func clampUint128(v *uint256.Int) uint128.Uint128 {
	if v.Gt(maxUint128Wide) {
		return uint128.Max
	}
	return uint128.New(v[0], v[1])
}

// MulDivRoundDown returns floor(x * y / d) using a 512-bit intermediate product.
func MulDivRoundDown(x, y, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrMulDivOverflow
	}
	return z, nil
}

// MulDivRoundUp returns ceil(x * y / d) using a 512-bit intermediate product.
func MulDivRoundUp(x, y, d *uint256.Int) (*uint256.Int, error) {
	z, err := MulDivRoundDown(x, y, d)
	if err != nil {
		return nil, err
	}
	if !new(uint256.Int).MulMod(x, y, d).IsZero() {
		return increment(z)
	}
	return z, nil
}

// MulShiftRoundDown returns floor(x * y / 2^offset).
func MulShiftRoundDown(x, y *uint256.Int, offset uint) (*uint256.Int, error) {
	return MulDivRoundDown(x, y, pow2(offset))
}

// MulShiftRoundUp returns ceil(x * y / 2^offset).
func MulShiftRoundUp(x, y *uint256.Int, offset uint) (*uint256.Int, error) {
	return MulDivRoundUp(x, y, pow2(offset))
}

// ShiftDivRoundDown returns floor(x * 2^offset / d).
func ShiftDivRoundDown(x *uint256.Int, offset uint, d *uint256.Int) (*uint256.Int, error) {
	return MulDivRoundDown(x, pow2(offset), d)
}

// ShiftDivRoundUp returns ceil(x * 2^offset / d).
func ShiftDivRoundUp(x *uint256.Int, offset uint, d *uint256.Int) (*uint256.Int, error) {
	return MulDivRoundUp(x, pow2(offset), d)
}

// pow2 returns 2^n. n must be below 256.
func pow2(n uint) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), n)
}

func increment(z *uint256.Int) (*uint256.Int, error) {
	z, carry := z.AddOverflow(z, uint256.NewInt(1))
	if carry {
		return nil, ErrMulDivOverflow
	}
	return z, nil
}
