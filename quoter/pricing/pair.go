package pricing

import (
	"fmt"

	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/config"
	"lukechampine.com/uint128"
)

// Pair is a pair preset turned into packed parameters and a bin book.
// Only funded bins are kept, and tree indexes their ids for swaps that
// cross bins.
type Pair struct {
	Name     string
	BinStep  uint16
	Params   lbmath.PairParameters
	Reserves lbmath.Amounts // active bin

	bins map[uint32]lbmath.Amounts
	tree *lbmath.TreeUint24
}

// NewPair validates a preset and packs its parameters. A zero active id
// means the bin of price 1.
func NewPair(preset config.PairPreset) (Pair, error) {
	params, err := lbmath.PairParameters{}.SetStaticFeeParameters(lbmath.StaticFeeParameters{
		BaseFactor:               preset.BaseFactor,
		FilterPeriod:             preset.FilterPeriod,
		DecayPeriod:              preset.DecayPeriod,
		ReductionFactor:          preset.ReductionFactor,
		VariableFeeControl:       preset.VariableFeeControl,
		ProtocolShare:            preset.ProtocolShare,
		MaxVolatilityAccumulator: preset.MaxVolatilityAccumulator,
	})
	if err != nil {
		return Pair{}, fmt.Errorf("pair %s: %w", preset.Name, err)
	}

	activeID := preset.ActiveID
	if activeID == 0 {
		activeID = lbmath.RealIDShift
	}
	if params, err = params.SetActiveID(activeID); err != nil {
		return Pair{}, fmt.Errorf("pair %s: %w", preset.Name, err)
	}
	params = params.UpdateIDReference()
	if params, err = params.SetVolatilityAccumulator(preset.VolatilityAccumulator); err != nil {
		return Pair{}, fmt.Errorf("pair %s: %w", preset.Name, err)
	}
	// bins crossed by a swap accumulate volatility on top of the preset one
	if params, err = params.SetVolatilityReference(preset.VolatilityAccumulator); err != nil {
		return Pair{}, fmt.Errorf("pair %s: %w", preset.Name, err)
	}

	reserves, err := parseReserves(preset.ReserveX, preset.ReserveY)
	if err != nil {
		return Pair{}, fmt.Errorf("pair %s: %w", preset.Name, err)
	}

	pair := Pair{
		Name:     preset.Name,
		BinStep:  preset.BinStep,
		Params:   params,
		Reserves: reserves,
		bins:     make(map[uint32]lbmath.Amounts, len(preset.Bins)+1),
		tree:     lbmath.NewTreeUint24(),
	}
	pair.fund(activeID, reserves)

	for _, bin := range preset.Bins {
		if bin.ID == activeID {
			return Pair{}, fmt.Errorf("%w: pair %s: bin %d is the active bin", ErrInvalidInput, preset.Name, bin.ID)
		}
		if pair.tree.Contains(bin.ID) {
			return Pair{}, fmt.Errorf("%w: pair %s: duplicate bin %d", ErrInvalidInput, preset.Name, bin.ID)
		}
		amounts, err := parseReserves(bin.ReserveX, bin.ReserveY)
		if err != nil {
			return Pair{}, fmt.Errorf("pair %s bin %d: %w", preset.Name, bin.ID, err)
		}
		if err := lbmath.VerifyAmounts(amounts, activeID, bin.ID); err != nil {
			return Pair{}, fmt.Errorf("pair %s: %w", preset.Name, err)
		}
		pair.fund(bin.ID, amounts)
	}

	return pair, nil
}

// fund records the reserves of a bin. Empty bins are not indexed.
func (p *Pair) fund(id uint32, reserves lbmath.Amounts) {
	if reserves.IsZero() {
		return
	}
	p.bins[id] = reserves
	p.tree.Add(id)
}

// BinReserves returns the reserves of bin id, zero when it is not funded
func (p Pair) BinReserves(id uint32) lbmath.Amounts {
	return p.bins[id]
}

// BinCount returns the number of funded bins, the active one included
func (p Pair) BinCount() int {
	return len(p.bins)
}

// nextBin returns the next funded bin a swap moves to: lower ids when
// swapping X for Y, higher ids otherwise.
func (p Pair) nextBin(id uint32, swapForY bool) (uint32, bool) {
	if swapForY {
		return p.tree.FindFirstRight(id)
	}
	return p.tree.FindFirstLeft(id)
}

func parseReserves(x, y string) (lbmath.Amounts, error) {
	reserveX, err := parseOptionalAmount(x)
	if err != nil {
		return lbmath.Amounts{}, fmt.Errorf("reserve_x: %w", err)
	}
	reserveY, err := parseOptionalAmount(y)
	if err != nil {
		return lbmath.Amounts{}, fmt.Errorf("reserve_y: %w", err)
	}
	return lbmath.Amounts{X: reserveX, Y: reserveY}, nil
}

func parseOptionalAmount(s string) (uint128.Uint128, error) {
	if s == "" {
		return uint128.Zero, nil
	}
	return ParseAmount(s)
}
