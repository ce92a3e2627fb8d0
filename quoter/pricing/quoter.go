package pricing

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/config"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"lukechampine.com/uint128"
)

var quoterLog zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	quoterLog = zerolog.New(out).With().Timestamp().Str("component", "quoter").Logger()
}

// SetLogger replaces the quoter logger
func SetLogger(l zerolog.Logger) {
	quoterLog = l.With().Str("component", "quoter").Logger()
}

// ErrUnknownPair is returned when a request names a pair that is not loaded
var ErrUnknownPair = errors.New("unknown pair")

const defaultPriceCacheSize = 4096

type priceKey struct {
	binStep uint16
	id      uint32
}

// Quoter answers fee, price and swap quotes for a fixed set of pairs.
// It is safe for concurrent use: the pairs never change after NewQuoter and
// the price cache locks internally.
type Quoter struct {
	pairs  map[string]Pair
	names  []string
	prices *lru.Cache[priceKey, uint256.Int]
}

// NewQuoter builds a quoter over the presets with a price cache of cacheSize
// entries. A cacheSize of zero or less uses the default size.
func NewQuoter(presets []config.PairPreset, cacheSize int) (*Quoter, error) {
	if cacheSize <= 0 {
		cacheSize = defaultPriceCacheSize
	}
	prices, err := lru.New[priceKey, uint256.Int](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create price cache: %w", err)
	}

	pairs := make(map[string]Pair, len(presets))
	names := make([]string, 0, len(presets))
	for _, preset := range presets {
		if _, ok := pairs[preset.Name]; ok {
			return nil, fmt.Errorf("pair %s: duplicate name", preset.Name)
		}
		pair, err := NewPair(preset)
		if err != nil {
			return nil, err
		}
		pairs[pair.Name] = pair
		names = append(names, pair.Name)
	}
	sort.Strings(names)

	quoterLog.Info().Int("pairs", len(pairs)).Int("price_cache", cacheSize).Msg("Quoter ready")

	return &Quoter{pairs: pairs, names: names, prices: prices}, nil
}

// Pair returns the loaded pair with the given name
func (q *Quoter) Pair(name string) (Pair, error) {
	pair, ok := q.pairs[name]
	if !ok {
		return Pair{}, fmt.Errorf("%w: %s", ErrUnknownPair, name)
	}
	return pair, nil
}

// FeeAmountFrom returns the fee included in an amount that already carries fees
func (q *Quoter) FeeAmountFrom(req models.FeeRequest) (models.FeeResponse, error) {
	return feeQuote(req, lbmath.GetFeeAmountFrom)
}

// FeeAmount returns the fee to add on top of a net amount
func (q *Quoter) FeeAmount(req models.FeeRequest) (models.FeeResponse, error) {
	return feeQuote(req, lbmath.GetFeeAmount)
}

// CompositionFee returns the fee charged on the implicit swap of an
// unbalanced deposit into the active bin
func (q *Quoter) CompositionFee(req models.FeeRequest) (models.FeeResponse, error) {
	return feeQuote(req, lbmath.GetCompositionFee)
}

func feeQuote(
	req models.FeeRequest,
	op func(amount, totalFee uint128.Uint128) (uint128.Uint128, error),
) (models.FeeResponse, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return models.FeeResponse{}, err
	}
	totalFee, err := ParseFeeRate(req.TotalFee)
	if err != nil {
		return models.FeeResponse{}, err
	}

	fee, err := op(amount, totalFee)
	if err != nil {
		return models.FeeResponse{}, err
	}

	return models.FeeResponse{
		Fee:      fee.String(),
		FeeRate:  FeeRate(totalFee),
		TotalFee: totalFee.String(),
	}, nil
}

// ProtocolFee returns the protocol part of a collected fee
func (q *Quoter) ProtocolFee(req models.ProtocolFeeRequest) (models.ProtocolFeeResponse, error) {
	feeAmount, err := ParseAmount(req.FeeAmount)
	if err != nil {
		return models.ProtocolFeeResponse{}, err
	}
	share, err := ParseAmount(req.ProtocolShare)
	if err != nil {
		return models.ProtocolFeeResponse{}, err
	}

	protocolFee, err := lbmath.GetProtocolFeeAmount(feeAmount, share)
	if err != nil {
		return models.ProtocolFeeResponse{}, err
	}

	return models.ProtocolFeeResponse{
		ProtocolFee: protocolFee.String(),
		ShareRate:   ShareRate(share),
	}, nil
}

// PairFees returns the current base, variable and total fee of a pair
func (q *Quoter) PairFees(req models.PairFeesRequest) (models.PairFeesResponse, error) {
	pair, err := q.Pair(req.Pair)
	if err != nil {
		return models.PairFeesResponse{}, err
	}

	totalFee := pair.Params.GetTotalFee(pair.BinStep)
	return models.PairFeesResponse{
		Pair:          pair.Name,
		BinStep:       pair.BinStep,
		BaseFee:       pair.Params.GetBaseFee(pair.BinStep).String(),
		VariableFee:   pair.Params.GetVariableFee(pair.BinStep).String(),
		TotalFee:      totalFee.String(),
		TotalFeeRate:  FeeRate(totalFee),
		ProtocolShare: pair.Params.ProtocolShare(),
		FeeTooLarge:   totalFee.Cmp(lbmath.MaxFee) > 0,
	}, nil
}

// Price returns the price of a bin
func (q *Quoter) Price(req models.PriceRequest) (models.PriceResponse, error) {
	price, err := q.price(req.BinStep, req.ID)
	if err != nil {
		return models.PriceResponse{}, err
	}
	decimalPrice, err := lbmath.Convert128x128PriceToDecimal(price)
	if err != nil {
		return models.PriceResponse{}, err
	}

	return models.PriceResponse{
		BinStep:      req.BinStep,
		ID:           req.ID,
		Price128x128: price.Dec(),
		Price:        DecimalPrice(decimalPrice),
	}, nil
}

// price returns a copy of the cached 128.128 price of the bin
func (q *Quoter) price(binStep uint16, id uint32) (*uint256.Int, error) {
	if binStep == 0 {
		return nil, fmt.Errorf("%w: bin step must be positive", ErrInvalidInput)
	}
	if id >= 1<<24 {
		return nil, fmt.Errorf("%w: id %d does not fit in 24 bits", ErrInvalidInput, id)
	}

	key := priceKey{binStep: binStep, id: id}
	if cached, ok := q.prices.Get(key); ok {
		return &cached, nil
	}

	price, err := lbmath.GetPriceFromID(id, binStep)
	if err != nil {
		return nil, err
	}
	q.prices.Add(key, *price)
	quoterLog.Debug().Uint16("bin_step", binStep).Uint32("id", id).Msg("Cached bin price")

	return price, nil
}

// QuoteSwap quotes a swap starting at the active bin of a pair. Once a bin
// is drained the swap moves to the next funded bin, lower ids when swapping
// for Y and higher ids otherwise, with the volatility accumulator growing
// with the distance from the starting bin. Input left over once the funded
// bins run out is returned as AmountLeft.
func (q *Quoter) QuoteSwap(req models.QuoteSwapRequest) (models.QuoteSwapResponse, error) {
	pair, err := q.Pair(req.Pair)
	if err != nil {
		return models.QuoteSwapResponse{}, err
	}

	amountIn, err := ParseAmount(req.AmountIn)
	if err != nil {
		return models.QuoteSwapResponse{}, err
	}

	params := pair.Params
	activeID := params.ActiveID()
	if req.ActiveID != 0 {
		activeID = req.ActiveID
		if params, err = params.SetActiveID(activeID); err != nil {
			return models.QuoteSwapResponse{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		params = params.UpdateIDReference()
	}

	reserves := pair.BinReserves(activeID)
	if req.ReserveX != "" {
		if reserves.X, err = ParseAmount(req.ReserveX); err != nil {
			return models.QuoteSwapResponse{}, err
		}
	}
	if req.ReserveY != "" {
		if reserves.Y, err = ParseAmount(req.ReserveY); err != nil {
			return models.QuoteSwapResponse{}, err
		}
	}

	protocolShare := uint128.From64(uint64(params.ProtocolShare()))
	var (
		used, out, fees, protocolFees uint128.Uint128
		bins                          []models.BinSwap
	)
	left := amountIn
	id := activeID
	for {
		if !lbmath.IsEmpty(reserves, !req.SwapForY) {
			if id != activeID {
				if params, err = params.UpdateVolatilityAccumulator(id); err != nil {
					return models.QuoteSwapResponse{}, err
				}
			}

			amountsIn := lbmath.AmountsY(left)
			if req.SwapForY {
				amountsIn = lbmath.AmountsX(left)
			}
			swap, err := lbmath.GetAmounts(reserves, params, pair.BinStep, req.SwapForY, id, amountsIn)
			if err != nil {
				return models.QuoteSwapResponse{}, err
			}

			binIn := swap.InWithFees.Get(req.SwapForY)
			binOut := swap.OutOfBin.Get(!req.SwapForY)
			binFee := swap.Fees.Get(req.SwapForY)
			binProtocolFee, err := lbmath.GetProtocolFeeAmount(binFee, protocolShare)
			if err != nil {
				return models.QuoteSwapResponse{}, err
			}

			// every sum is bounded by amountIn or by the reserves crossed
			used = used.Add(binIn)
			fees = fees.Add(binFee)
			protocolFees = protocolFees.Add(binProtocolFee)
			if out, err = addAmount(out, binOut); err != nil {
				return models.QuoteSwapResponse{}, err
			}
			left = left.Sub(binIn)
			activeID = id

			bins = append(bins, models.BinSwap{
				ID:        id,
				AmountIn:  binIn.String(),
				AmountOut: binOut.String(),
				Fee:       binFee.String(),
				TotalFee:  params.GetTotalFee(pair.BinStep).String(),
			})
		}

		if left.IsZero() {
			break
		}
		next, ok := pair.nextBin(id, req.SwapForY)
		if !ok {
			break
		}
		id, reserves = next, pair.BinReserves(next)
	}

	price, err := q.price(pair.BinStep, activeID)
	if err != nil {
		return models.QuoteSwapResponse{}, err
	}
	decimalPrice, err := lbmath.Convert128x128PriceToDecimal(price)
	if err != nil {
		return models.QuoteSwapResponse{}, err
	}

	quoterLog.Debug().
		Str("pair", pair.Name).
		Uint32("active_id", activeID).
		Int("bins", len(bins)).
		Bool("swap_for_y", req.SwapForY).
		Str("amount_in", used.String()).
		Msg("Quoted swap")

	return models.QuoteSwapResponse{
		Pair:        pair.Name,
		ActiveID:    activeID,
		AmountIn:    used.String(),
		AmountOut:   out.String(),
		AmountLeft:  left.String(),
		Fee:         fees.String(),
		ProtocolFee: protocolFees.String(),
		TotalFee:    params.GetTotalFee(pair.BinStep).String(),
		Price:       DecimalPrice(decimalPrice),
		Bins:        bins,
	}, nil
}

// QuoteAddLiquidity splits a deposit over bins with liquidity
// configurations. Deposits into the active bin that change its composition
// pay the composition fee. The bin supply is taken to be its liquidity, as
// the quoter does not track shares.
func (q *Quoter) QuoteAddLiquidity(req models.QuoteAddLiquidityRequest) (models.QuoteAddLiquidityResponse, error) {
	pair, err := q.Pair(req.Pair)
	if err != nil {
		return models.QuoteAddLiquidityResponse{}, err
	}

	amountX, err := ParseAmount(req.AmountX)
	if err != nil {
		return models.QuoteAddLiquidityResponse{}, err
	}
	amountY, err := ParseAmount(req.AmountY)
	if err != nil {
		return models.QuoteAddLiquidityResponse{}, err
	}
	deposit := lbmath.Amounts{X: amountX, Y: amountY}

	configs, err := liquidityConfigs(req.Bins)
	if err != nil {
		return models.QuoteAddLiquidityResponse{}, err
	}

	activeID := pair.Params.ActiveID()
	var credited, fees lbmath.Amounts
	bins := make([]models.BinDeposit, 0, len(configs))
	for _, cfg := range configs {
		bin, amounts, binFees, err := q.depositInBin(pair, cfg, deposit)
		if err != nil {
			return models.QuoteAddLiquidityResponse{}, err
		}
		// the distributions add up to at most the deposit, so neither sum overflows
		credited, _ = credited.Add(amounts)
		fees, _ = fees.Add(binFees)
		bins = append(bins, bin)
	}

	quoterLog.Debug().
		Str("pair", pair.Name).
		Int("bins", len(bins)).
		Str("amount_x", credited.X.String()).
		Str("amount_y", credited.Y.String()).
		Msg("Quoted liquidity")

	return models.QuoteAddLiquidityResponse{
		Pair:        pair.Name,
		ActiveID:    activeID,
		AmountX:     credited.X.String(),
		AmountY:     credited.Y.String(),
		FeeX:        fees.X.String(),
		FeeY:        fees.Y.String(),
		AmountXLeft: amountX.Sub(credited.X).Sub(fees.X).String(),
		AmountYLeft: amountY.Sub(credited.Y).Sub(fees.Y).String(),
		Bins:        bins,
	}, nil
}

// depositInBin returns the part of deposit credited to the configured bin
// and the composition fees taken from it
func (q *Quoter) depositInBin(
	pair Pair,
	cfg lbmath.LiquidityConfiguration,
	deposit lbmath.Amounts,
) (bin models.BinDeposit, credited, fees lbmath.Amounts, err error) {
	word, err := cfg.Encode()
	if err != nil {
		return bin, credited, fees, err
	}
	amounts, id, err := cfg.GetAmountsAndID(deposit)
	if err != nil {
		return bin, credited, fees, err
	}
	activeID := pair.Params.ActiveID()
	if err := lbmath.VerifyAmounts(amounts, activeID, id); err != nil {
		return bin, credited, fees, err
	}

	price, err := q.price(pair.BinStep, id)
	if err != nil {
		return bin, credited, fees, err
	}
	reserves := pair.BinReserves(id)
	supply, err := lbmath.GetLiquidity(reserves, price)
	if err != nil {
		return bin, credited, fees, err
	}

	shares, effective, err := lbmath.GetSharesAndEffectiveAmountsIn(reserves, amounts, price, supply)
	if err != nil {
		return bin, credited, fees, err
	}

	if id == activeID {
		fees, err = lbmath.GetCompositionFees(reserves, pair.Params, pair.BinStep, effective, supply, shares)
		if err != nil {
			return bin, credited, fees, err
		}
		if !fees.IsZero() {
			// fees never exceed the side they are taken from
			effective = lbmath.Amounts{X: effective.X.Sub(fees.X), Y: effective.Y.Sub(fees.Y)}
			if shares, _, err = lbmath.GetSharesAndEffectiveAmountsIn(reserves, effective, price, supply); err != nil {
				return bin, credited, fees, err
			}
		}
	}

	decimalPrice, err := lbmath.Convert128x128PriceToDecimal(price)
	if err != nil {
		return bin, credited, fees, err
	}

	bin = models.BinDeposit{
		ID:      id,
		AmountX: effective.X.String(),
		AmountY: effective.Y.String(),
		Shares:  shares.Dec(),
		Price:   DecimalPrice(decimalPrice),
		Config:  word.Hex(),
	}
	if !fees.X.IsZero() {
		bin.FeeX = fees.X.String()
	}
	if !fees.Y.IsZero() {
		bin.FeeY = fees.Y.String()
	}
	return bin, effective, fees, nil
}

// liquidityConfigs parses the requested bins. Each token's distributions
// may not add up to more than the whole deposit.
func liquidityConfigs(bins []models.LiquidityBin) ([]lbmath.LiquidityConfiguration, error) {
	if len(bins) == 0 {
		return nil, fmt.Errorf("%w: at least one bin is required", ErrInvalidInput)
	}

	configs := make([]lbmath.LiquidityConfiguration, 0, len(bins))
	seen := make(map[uint32]struct{}, len(bins))
	var sumX, sumY uint128.Uint128
	for _, bin := range bins {
		if _, ok := seen[bin.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate bin %d", ErrInvalidInput, bin.ID)
		}
		seen[bin.ID] = struct{}{}

		dx, err := parseDistribution(bin.DistributionX)
		if err != nil {
			return nil, err
		}
		dy, err := parseDistribution(bin.DistributionY)
		if err != nil {
			return nil, err
		}
		sumX, sumY = sumX.Add64(dx), sumY.Add64(dy)
		if sumX.Cmp(lbmath.Precision) > 0 || sumY.Cmp(lbmath.Precision) > 0 {
			return nil, fmt.Errorf("%w: distributions add up to more than 1", ErrInvalidInput)
		}

		configs = append(configs, lbmath.LiquidityConfiguration{
			DistributionX: dx,
			DistributionY: dy,
			ID:            bin.ID,
		})
	}
	return configs, nil
}

// parseDistribution parses a share of a deposit, empty meaning none
func parseDistribution(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := ParseFeeRate(s)
	if err != nil {
		return 0, err
	}
	if d.Cmp(lbmath.Precision) > 0 {
		return 0, fmt.Errorf("%w: distribution %q is above 1", lbmath.ErrInvalidLiquidityConfig, s)
	}
	return d.Lo, nil
}

func addAmount(a, b uint128.Uint128) (uint128.Uint128, error) {
	sum, err := lbmath.Amounts{X: a}.Add(lbmath.Amounts{X: b})
	if err != nil {
		return uint128.Zero, err
	}
	return sum.X, nil
}

// ListPairs returns a summary of every loaded pair, sorted by name
func (q *Quoter) ListPairs(models.ListPairsRequest) models.ListPairsResponse {
	summaries := make([]models.PairSummary, 0, len(q.names))
	for _, name := range q.names {
		pair := q.pairs[name]
		summaries = append(summaries, models.PairSummary{
			Name:          pair.Name,
			BinStep:       pair.BinStep,
			ActiveID:      pair.Params.ActiveID(),
			BaseFactor:    pair.Params.BaseFactor(),
			ProtocolShare: pair.Params.ProtocolShare(),
			Bins:          pair.BinCount(),
		})
	}
	return models.ListPairsResponse{Pairs: summaries}
}
