package rpc

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/pricing"
)

// toConnectError maps quoter errors to connect codes. Anything the caller can
// fix by changing the request is InvalidArgument.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrUnknownPair):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, lbmath.ErrFeeTooLarge),
		errors.Is(err, lbmath.ErrProtocolShareTooLarge),
		errors.Is(err, lbmath.ErrPowUnderflow),
		errors.Is(err, lbmath.ErrAmountOverflow),
		errors.Is(err, lbmath.ErrInvalidParameter),
		errors.Is(err, lbmath.ErrCompositionFactorFlawed),
		errors.Is(err, lbmath.ErrInvalidLiquidityConfig):
		return connect.NewError(connect.CodeInvalidArgument, err)
	default:
		Logger.Error().Err(err).Msg("Unexpected quoter error")
		return connect.NewError(connect.CodeInternal, errors.New("internal server error"))
	}
}
