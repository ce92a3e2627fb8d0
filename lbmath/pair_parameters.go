package lbmath

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// PairParameters packs the fee and volatility state of a pair into a single
// 256-bit word:
//
//	[0 - 16[    base factor
//	[16 - 28[   filter period
//	[28 - 40[   decay period
//	[40 - 54[   reduction factor
//	[54 - 78[   variable fee control
//	[78 - 92[   protocol share
//	[92 - 112[  max volatility accumulator
//	[112 - 132[ volatility accumulator
//	[132 - 152[ volatility reference
//	[152 - 176[ id reference
//	[176 - 216[ time of last update
//	[216 - 232[ oracle id
//	[232 - 256[ active id
//
// The zero value is a valid, empty parameter set. Setters return a copy.
type PairParameters struct {
	word uint256.Int
}

type field struct {
	offset uint
	bits   uint
}

var (
	fieldBaseFactor        = field{0, 16}
	fieldFilterPeriod      = field{16, 12}
	fieldDecayPeriod       = field{28, 12}
	fieldReductionFactor   = field{40, 14}
	fieldVarFeeControl     = field{54, 24}
	fieldProtocolShare     = field{78, 14}
	fieldMaxVolAcc         = field{92, 20}
	fieldVolAcc            = field{112, 20}
	fieldVolRef            = field{132, 20}
	fieldIDRef             = field{152, 24}
	fieldTimeOfLastUpdate  = field{176, 40}
	fieldOracleID          = field{216, 16}
	fieldActiveID          = field{232, 24}
	staticParametersLength = uint(112)
)

// baseFeeScale turns baseFactor * binStep (basis points squared) into a
// Precision scaled rate.
const baseFeeScale = 10_000_000_000

// StaticFeeParameters are the governance controlled fee settings of a pair.
type StaticFeeParameters struct {
	BaseFactor               uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	VariableFeeControl       uint32
	ProtocolShare            uint16
	MaxVolatilityAccumulator uint32
}

// PairParametersFromWord wraps an encoded parameter word.
func PairParametersFromWord(word *uint256.Int) PairParameters {
	var p PairParameters
	p.word.Set(word)
	return p
}

// Word returns a copy of the encoded parameter word.
func (p PairParameters) Word() *uint256.Int {
	return new(uint256.Int).Set(&p.word)
}

func (f field) mask() uint64 {
	return 1<<f.bits - 1
}

func (p PairParameters) get(f field) uint64 {
	return new(uint256.Int).Rsh(&p.word, f.offset).Uint64() & f.mask()
}

func (p PairParameters) set(f field, value uint64) (PairParameters, error) {
	if value > f.mask() {
		return p, fmt.Errorf("%w: %d does not fit in %d bits", ErrInvalidParameter, value, f.bits)
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(f.mask()), f.offset)
	p.word.And(&p.word, mask.Not(mask))
	p.word.Or(&p.word, new(uint256.Int).Lsh(uint256.NewInt(value), f.offset))
	return p, nil
}

func (p PairParameters) BaseFactor() uint16         { return uint16(p.get(fieldBaseFactor)) }
func (p PairParameters) FilterPeriod() uint16       { return uint16(p.get(fieldFilterPeriod)) }
func (p PairParameters) DecayPeriod() uint16        { return uint16(p.get(fieldDecayPeriod)) }
func (p PairParameters) ReductionFactor() uint16    { return uint16(p.get(fieldReductionFactor)) }
func (p PairParameters) VariableFeeControl() uint32 { return uint32(p.get(fieldVarFeeControl)) }
func (p PairParameters) ProtocolShare() uint16      { return uint16(p.get(fieldProtocolShare)) }
func (p PairParameters) MaxVolatilityAccumulator() uint32 {
	return uint32(p.get(fieldMaxVolAcc))
}
func (p PairParameters) VolatilityAccumulator() uint32 { return uint32(p.get(fieldVolAcc)) }
func (p PairParameters) VolatilityReference() uint32   { return uint32(p.get(fieldVolRef)) }
func (p PairParameters) IDReference() uint32           { return uint32(p.get(fieldIDRef)) }
func (p PairParameters) TimeOfLastUpdate() uint64      { return p.get(fieldTimeOfLastUpdate) }
func (p PairParameters) OracleID() uint16              { return uint16(p.get(fieldOracleID)) }
func (p PairParameters) ActiveID() uint32              { return uint32(p.get(fieldActiveID)) }

// StaticFeeParameters returns the static part of the parameters.
func (p PairParameters) StaticFeeParameters() StaticFeeParameters {
	return StaticFeeParameters{
		BaseFactor:               p.BaseFactor(),
		FilterPeriod:             p.FilterPeriod(),
		DecayPeriod:              p.DecayPeriod(),
		ReductionFactor:          p.ReductionFactor(),
		VariableFeeControl:       p.VariableFeeControl(),
		ProtocolShare:            p.ProtocolShare(),
		MaxVolatilityAccumulator: p.MaxVolatilityAccumulator(),
	}
}

// GetBaseFee returns baseFactor * binStep * 1e10, scaled by Precision.
func (p PairParameters) GetBaseFee(binStep uint16) uint128.Uint128 {
	return uint128.From64(uint64(p.BaseFactor())).Mul64(uint64(binStep)).Mul64(baseFeeScale)
}

// GetVariableFee returns ceil((volatilityAccumulator * binStep)^2 * variableFeeControl / 100),
// scaled by Precision.
func (p PairParameters) GetVariableFee(binStep uint16) uint128.Uint128 {
	control := p.VariableFeeControl()
	if control == 0 {
		return uint128.Zero
	}
	prod := uint64(p.VolatilityAccumulator()) * uint64(binStep)
	return uint128.From64(prod).Mul64(prod).Mul64(uint64(control)).Add64(99).Div64(100)
}

// GetTotalFee returns the base fee plus the variable fee. The result is not
// capped; fee operations reject it when it exceeds MaxFee.
func (p PairParameters) GetTotalFee(binStep uint16) uint128.Uint128 {
	return p.GetBaseFee(binStep).Add(p.GetVariableFee(binStep))
}

// SetOracleID sets the oracle id.
func (p PairParameters) SetOracleID(oracleID uint16) PairParameters {
	p, _ = p.set(fieldOracleID, uint64(oracleID))
	return p
}

// SetVolatilityReference sets the volatility reference, a 20-bit value.
func (p PairParameters) SetVolatilityReference(volRef uint32) (PairParameters, error) {
	return p.set(fieldVolRef, uint64(volRef))
}

// SetVolatilityAccumulator sets the volatility accumulator, a 20-bit value.
func (p PairParameters) SetVolatilityAccumulator(volAcc uint32) (PairParameters, error) {
	return p.set(fieldVolAcc, uint64(volAcc))
}

// SetActiveID sets the active id, a 24-bit value.
func (p PairParameters) SetActiveID(activeID uint32) (PairParameters, error) {
	return p.set(fieldActiveID, uint64(activeID))
}

// SetStaticFeeParameters validates s and replaces the static part of the
// parameters with it. The dynamic part is kept.
func (p PairParameters) SetStaticFeeParameters(s StaticFeeParameters) (PairParameters, error) {
	if s.FilterPeriod > s.DecayPeriod || uint64(s.DecayPeriod) > fieldDecayPeriod.mask() {
		return p, fmt.Errorf("%w: filter period %d, decay period %d", ErrInvalidParameter, s.FilterPeriod, s.DecayPeriod)
	}
	if s.ReductionFactor > BasisPointMax {
		return p, fmt.Errorf("%w: reduction factor %d", ErrInvalidParameter, s.ReductionFactor)
	}
	if s.ProtocolShare > MaxProtocolShare {
		return p, fmt.Errorf("%w: protocol share %d", ErrInvalidParameter, s.ProtocolShare)
	}

	var static PairParameters
	values := []struct {
		f     field
		value uint64
	}{
		{fieldBaseFactor, uint64(s.BaseFactor)},
		{fieldFilterPeriod, uint64(s.FilterPeriod)},
		{fieldDecayPeriod, uint64(s.DecayPeriod)},
		{fieldReductionFactor, uint64(s.ReductionFactor)},
		{fieldVarFeeControl, uint64(s.VariableFeeControl)},
		{fieldProtocolShare, uint64(s.ProtocolShare)},
		{fieldMaxVolAcc, uint64(s.MaxVolatilityAccumulator)},
	}
	for _, v := range values {
		var err error
		if static, err = static.set(v.f, v.value); err != nil {
			return p, err
		}
	}

	staticMask := new(uint256.Int).Lsh(uint256.NewInt(1), staticParametersLength)
	staticMask.SubUint64(staticMask, 1)
	p.word.And(&p.word, new(uint256.Int).Not(staticMask))
	p.word.Or(&p.word, &static.word)
	return p, nil
}

// UpdateIDReference copies the active id into the id reference.
func (p PairParameters) UpdateIDReference() PairParameters {
	p, _ = p.set(fieldIDRef, uint64(p.ActiveID()))
	return p
}

// UpdateTimeOfLastUpdate stores now, in unix seconds.
func (p PairParameters) UpdateTimeOfLastUpdate(now time.Time) (PairParameters, error) {
	if now.Unix() < 0 {
		return p, fmt.Errorf("%w: time %d before epoch", ErrInvalidParameter, now.Unix())
	}
	return p.set(fieldTimeOfLastUpdate, uint64(now.Unix()))
}

// UpdateVolatilityReference sets the volatility reference to
// volatilityAccumulator * reductionFactor / BasisPointMax.
func (p PairParameters) UpdateVolatilityReference() (PairParameters, error) {
	volRef := uint64(p.VolatilityAccumulator()) * uint64(p.ReductionFactor()) / BasisPointMax
	return p.set(fieldVolRef, volRef)
}

// UpdateVolatilityAccumulator sets the volatility accumulator to
// volatilityReference + |activeID - idReference| * BasisPointMax, capped at the
// max volatility accumulator.
func (p PairParameters) UpdateVolatilityAccumulator(activeID uint32) (PairParameters, error) {
	idRef := p.IDReference()
	var deltaID uint64
	if activeID > idRef {
		deltaID = uint64(activeID - idRef)
	} else {
		deltaID = uint64(idRef - activeID)
	}

	volAcc := uint64(p.VolatilityReference()) + deltaID*BasisPointMax
	if maxVolAcc := uint64(p.MaxVolatilityAccumulator()); volAcc > maxVolAcc {
		volAcc = maxVolAcc
	}
	return p.set(fieldVolAcc, volAcc)
}

// UpdateReferences refreshes the id and volatility references when at least a
// filter period has elapsed since the last update, then stores now. Past the
// decay period the volatility reference resets to zero.
func (p PairParameters) UpdateReferences(now time.Time) (PairParameters, error) {
	last := p.TimeOfLastUpdate()
	if now.Unix() < 0 || uint64(now.Unix()) < last {
		return p, fmt.Errorf("%w: time %d before last update %d", ErrInvalidParameter, now.Unix(), last)
	}
	dt := uint64(now.Unix()) - last

	if dt >= uint64(p.FilterPeriod()) {
		p = p.UpdateIDReference()

		var err error
		if dt < uint64(p.DecayPeriod()) {
			p, err = p.UpdateVolatilityReference()
		} else {
			p, err = p.SetVolatilityReference(0)
		}
		if err != nil {
			return p, err
		}
	}

	return p.UpdateTimeOfLastUpdate(now)
}

// UpdateVolatilityParameters runs UpdateReferences then UpdateVolatilityAccumulator.
func (p PairParameters) UpdateVolatilityParameters(activeID uint32, now time.Time) (PairParameters, error) {
	p, err := p.UpdateReferences(now)
	if err != nil {
		return p, err
	}
	return p.UpdateVolatilityAccumulator(activeID)
}
