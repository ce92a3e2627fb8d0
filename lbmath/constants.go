package lbmath

import (
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

const (
	// ScaleOffset is the number of fractional bits of a 128.128 fixed-point number
	ScaleOffset = 128

	// BasisPointMax is 100% expressed in basis points
	BasisPointMax = 10_000

	// MaxProtocolShare is the largest protocol share allowed, in basis points (25%)
	MaxProtocolShare = 2_500

	precisionU64 uint64 = 1_000_000_000_000_000_000
	maxFeeU64    uint64 = 100_000_000_000_000_000
)

var (
	// Precision is 1e18, the scale of every fee rate
	Precision = uint128.From64(precisionU64)

	// MaxFee is the largest total fee rate allowed (10%), scaled by Precision
	MaxFee = uint128.From64(maxFeeU64)

	// SquaredPrecision is Precision^2. It does not fit in 64 bits.
	SquaredPrecision = Precision.Mul(Precision)

	// Scale is 1 in 128.128 fixed point
	Scale = new(uint256.Int).Lsh(uint256.NewInt(1), ScaleOffset)
)

var (
	precisionWide        = uint256.NewInt(precisionU64)
	squaredPrecisionWide = new(uint256.Int).Mul(precisionWide, precisionWide)
	basisPointMaxWide    = uint256.NewInt(BasisPointMax)
	maxUint128Wide       = wide(uint128.Max)
)
