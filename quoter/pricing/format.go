package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"
)

// ErrInvalidInput is returned for malformed amounts, rates and ids
var ErrInvalidInput = errors.New("invalid input")

const (
	feeRateExp   = -18
	shareRateExp = -4
)

// ParseAmount parses a base 10 unsigned 128-bit amount
func ParseAmount(s string) (uint128.Uint128, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return uint128.Zero, fmt.Errorf("%w: amount %q is not a base 10 integer", ErrInvalidInput, s)
	}
	v, err := uint128.FromString(s)
	if err != nil {
		return uint128.Zero, fmt.Errorf("%w: amount %q: %v", ErrInvalidInput, s, err)
	}
	return v, nil
}

// ParseFeeRate accepts a fee either as an integer scaled by 1e18 or as a
// decimal fraction with a dot, e.g. "0.003". Fractions must be exact at 18
// decimals.
func ParseFeeRate(s string) (uint128.Uint128, error) {
	if !strings.Contains(s, ".") {
		return ParseAmount(s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return uint128.Zero, fmt.Errorf("%w: fee rate %q: %v", ErrInvalidInput, s, err)
	}
	scaled := d.Shift(-feeRateExp)
	if d.IsNegative() || !scaled.IsInteger() {
		return uint128.Zero, fmt.Errorf("%w: fee rate %q needs at most 18 positive decimals", ErrInvalidInput, s)
	}
	return ParseAmount(scaled.BigInt().String())
}

// FeeRate renders a 1e18 scaled fee as a decimal fraction
func FeeRate(fee uint128.Uint128) string {
	return decimal.NewFromBigInt(fee.Big(), feeRateExp).String()
}

// ShareRate renders a basis point share as a decimal fraction
func ShareRate(share uint128.Uint128) string {
	return decimal.NewFromBigInt(share.Big(), shareRateExp).String()
}

// DecimalPrice renders an 18 decimal price as a decimal number
func DecimalPrice(price *uint256.Int) string {
	return decimal.NewFromBigInt(price.ToBig(), feeRateExp).String()
}
