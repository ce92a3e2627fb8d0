package lbmath

import (
	"fmt"

	"github.com/holiman/uint256"
)

// LiquidityConfiguration tells how much of a deposit goes to bin ID. The
// distributions are fractions of the deposited X and Y, scaled by Precision.
//
// Encoded word layout:
//
//	[0 - 24[   id
//	[24 - 88[  distribution y
//	[88 - 152[ distribution x
type LiquidityConfiguration struct {
	DistributionX uint64
	DistributionY uint64
	ID            uint32
}

var (
	fieldConfigID            = field{0, 24}
	fieldConfigDistributionY = field{24, 64}
	fieldConfigDistributionX = field{88, 64}

	maxConfigWord = new(uint256.Int).SubUint64(pow2(152), 1)
)

func (c LiquidityConfiguration) validate() error {
	if c.DistributionX > precisionU64 || c.DistributionY > precisionU64 || c.ID > maxID {
		return fmt.Errorf("%w: id %d, distribution x %d, distribution y %d",
			ErrInvalidLiquidityConfig, c.ID, c.DistributionX, c.DistributionY)
	}
	return nil
}

// Encode packs the configuration into a single word
func (c LiquidityConfiguration) Encode() (*uint256.Int, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	word := new(uint256.Int)
	for _, v := range []struct {
		f     field
		value uint64
	}{
		{fieldConfigID, uint64(c.ID)},
		{fieldConfigDistributionY, c.DistributionY},
		{fieldConfigDistributionX, c.DistributionX},
	} {
		word.Or(word, new(uint256.Int).Lsh(uint256.NewInt(v.value), v.f.offset))
	}
	return word, nil
}

// DecodeLiquidityConfiguration unpacks an encoded configuration. Words with
// bits above 152 or distributions above Precision are rejected.
func DecodeLiquidityConfiguration(word *uint256.Int) (LiquidityConfiguration, error) {
	if word.Gt(maxConfigWord) {
		return LiquidityConfiguration{}, fmt.Errorf("%w: word %s", ErrInvalidLiquidityConfig, word.Hex())
	}
	read := func(f field) uint64 {
		return new(uint256.Int).Rsh(word, f.offset).Uint64() & f.mask()
	}
	c := LiquidityConfiguration{
		DistributionX: read(fieldConfigDistributionX),
		DistributionY: read(fieldConfigDistributionY),
		ID:            uint32(read(fieldConfigID)),
	}
	if err := c.validate(); err != nil {
		return LiquidityConfiguration{}, err
	}
	return c, nil
}

// GetAmountsAndID returns the part of amountsIn that goes to the configured
// bin, rounded down, and the bin id.
func (c LiquidityConfiguration) GetAmountsAndID(amountsIn Amounts) (Amounts, uint32, error) {
	if err := c.validate(); err != nil {
		return Amounts{}, 0, err
	}

	x, err := MulDivRoundDown(wide(amountsIn.X), uint256.NewInt(c.DistributionX), precisionWide)
	if err != nil {
		return Amounts{}, 0, err
	}
	y, err := MulDivRoundDown(wide(amountsIn.Y), uint256.NewInt(c.DistributionY), precisionWide)
	if err != nil {
		return Amounts{}, 0, err
	}

	// a distribution never exceeds Precision, so both fit back in 128 bits
	return Amounts{X: clampUint128(x), Y: clampUint128(y)}, c.ID, nil
}
