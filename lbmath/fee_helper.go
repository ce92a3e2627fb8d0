package lbmath

import (
	"fmt"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// Fee rates are fractions scaled by Precision: a total fee of 3e15 is 0.3%.
// Protocol shares are fractions scaled by BasisPointMax.
//
// Fees collected from swaps round up so the pair never under-collects. The
// composition fee and the protocol share round down.

// GetFeeAmountFrom returns the fee included in amountWithFees,
// ceil(amountWithFees * totalFee / Precision).
func GetFeeAmountFrom(amountWithFees, totalFee uint128.Uint128) (uint128.Uint128, error) {
	if err := verifyFee(totalFee); err != nil {
		return uint128.Zero, err
	}

	numerator := new(uint256.Int).Mul(wide(amountWithFees), wide(totalFee))
	numerator.Add(numerator, precisionWide)
	numerator.SubUint64(numerator, 1)

	return narrow(numerator.Div(numerator, precisionWide))
}

// GetFeeAmount returns the fee to add on top of amount so that amount + fee is
// the gross transfer, ceil(amount * totalFee / (Precision - totalFee)).
func GetFeeAmount(amount, totalFee uint128.Uint128) (uint128.Uint128, error) {
	if err := verifyFee(totalFee); err != nil {
		return uint128.Zero, err
	}

	denominator := new(uint256.Int).Sub(precisionWide, wide(totalFee))

	numerator := new(uint256.Int).Mul(wide(amount), wide(totalFee))
	numerator.Add(numerator, denominator)
	numerator.SubUint64(numerator, 1)

	return narrow(numerator.Div(numerator, denominator))
}

// GetCompositionFee returns the fee charged on the implicit swap performed when
// liquidity is added to the active bin with a different composition,
// floor(amountWithFees * totalFee * (totalFee + Precision) / Precision^2).
func GetCompositionFee(amountWithFees, totalFee uint128.Uint128) (uint128.Uint128, error) {
	if err := verifyFee(totalFee); err != nil {
		return uint128.Zero, err
	}

	feeFactor := new(uint256.Int).Add(wide(totalFee), precisionWide)
	feeFactor.Mul(feeFactor, wide(totalFee))

	fee := new(uint256.Int).Mul(wide(amountWithFees), feeFactor)

	return narrow(fee.Div(fee, squaredPrecisionWide))
}

// GetProtocolFeeAmount returns the part of feeAmount owed to the protocol,
// floor(feeAmount * protocolShare / BasisPointMax).
func GetProtocolFeeAmount(feeAmount, protocolShare uint128.Uint128) (uint128.Uint128, error) {
	if err := verifyProtocolShare(protocolShare); err != nil {
		return uint128.Zero, err
	}

	fee := new(uint256.Int).Mul(wide(feeAmount), wide(protocolShare))

	return narrow(fee.Div(fee, basisPointMaxWide))
}

func verifyFee(totalFee uint128.Uint128) error {
	if totalFee.Cmp(MaxFee) > 0 {
		return fmt.Errorf("%w: %s > %s", ErrFeeTooLarge, totalFee, MaxFee)
	}
	return nil
}

func verifyProtocolShare(protocolShare uint128.Uint128) error {
	if protocolShare.Cmp64(MaxProtocolShare) > 0 {
		return fmt.Errorf("%w: %s > %d", ErrProtocolShareTooLarge, protocolShare, MaxProtocolShare)
	}
	return nil
}
