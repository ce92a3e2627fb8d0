package lbmath

import "errors"

// Fee errors. Both are caller mistakes and are never retried.
var (
	ErrFeeTooLarge           = errors.New("fee too large")
	ErrProtocolShareTooLarge = errors.New("protocol share too large")
)

// Arithmetic errors
var (
	ErrAmountOverflow  = errors.New("amount does not fit in 128 bits")
	ErrMulDivOverflow  = errors.New("mul div result does not fit in 256 bits")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrPowUnderflow    = errors.New("pow underflow")
	ErrLogUnderflow    = errors.New("log underflow")
	ErrIDShiftOverflow = errors.New("id shift overflow")
)

// Parameter and bin errors
var (
	ErrInvalidParameter        = errors.New("invalid pair parameter")
	ErrCompositionFactorFlawed = errors.New("composition factor flawed")
	ErrInvalidLiquidityConfig  = errors.New("invalid liquidity configuration")
)

// ErrLiquidityOverflow is returned when price * x + y does not fit in 256 bits
var ErrLiquidityOverflow = errors.New("liquidity overflow")
