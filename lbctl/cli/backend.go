package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/Cogwheel-Validator/liquidity-book/quoter/config"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/pricing"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/rpc"
)

// backend answers quote requests either in process or from a quoter server
type backend interface {
	FeeAmountFrom(ctx context.Context, req models.FeeRequest) (*models.FeeResponse, error)
	FeeAmount(ctx context.Context, req models.FeeRequest) (*models.FeeResponse, error)
	CompositionFee(ctx context.Context, req models.FeeRequest) (*models.FeeResponse, error)
	ProtocolFee(ctx context.Context, req models.ProtocolFeeRequest) (*models.ProtocolFeeResponse, error)
	PairFees(ctx context.Context, req models.PairFeesRequest) (*models.PairFeesResponse, error)
	Price(ctx context.Context, req models.PriceRequest) (*models.PriceResponse, error)
	QuoteSwap(ctx context.Context, req models.QuoteSwapRequest) (*models.QuoteSwapResponse, error)
	ListPairs(ctx context.Context) (*models.ListPairsResponse, error)
	QuoteAddLiquidity(ctx context.Context, req models.QuoteAddLiquidityRequest) (*models.QuoteAddLiquidityResponse, error)
}

var _ backend = (*rpc.QuoteClient)(nil)

// localBackend runs the quoter in process
type localBackend struct {
	quoter *pricing.Quoter
}

func newLocalBackend(pairsFile string) (*localBackend, error) {
	var presets []config.PairPreset
	if pairsFile != "" {
		var err error
		if presets, err = config.NewDefaultPairsLoader().LoadPairs(pairsFile); err != nil {
			return nil, err
		}
	}
	quoter, err := pricing.NewQuoter(presets, 0)
	if err != nil {
		return nil, err
	}
	return &localBackend{quoter: quoter}, nil
}

func newRemoteBackend(baseURL string, timeout time.Duration) *rpc.QuoteClient {
	return rpc.NewQuoteClient(&http.Client{Timeout: timeout}, baseURL)
}

func (b *localBackend) FeeAmountFrom(_ context.Context, req models.FeeRequest) (*models.FeeResponse, error) {
	return wrap(b.quoter.FeeAmountFrom(req))
}

func (b *localBackend) FeeAmount(_ context.Context, req models.FeeRequest) (*models.FeeResponse, error) {
	return wrap(b.quoter.FeeAmount(req))
}

func (b *localBackend) CompositionFee(_ context.Context, req models.FeeRequest) (*models.FeeResponse, error) {
	return wrap(b.quoter.CompositionFee(req))
}

func (b *localBackend) ProtocolFee(_ context.Context, req models.ProtocolFeeRequest) (*models.ProtocolFeeResponse, error) {
	return wrap(b.quoter.ProtocolFee(req))
}

func (b *localBackend) PairFees(_ context.Context, req models.PairFeesRequest) (*models.PairFeesResponse, error) {
	return wrap(b.quoter.PairFees(req))
}

func (b *localBackend) Price(_ context.Context, req models.PriceRequest) (*models.PriceResponse, error) {
	return wrap(b.quoter.Price(req))
}

func (b *localBackend) QuoteSwap(_ context.Context, req models.QuoteSwapRequest) (*models.QuoteSwapResponse, error) {
	return wrap(b.quoter.QuoteSwap(req))
}

func (b *localBackend) QuoteAddLiquidity(
	_ context.Context,
	req models.QuoteAddLiquidityRequest,
) (*models.QuoteAddLiquidityResponse, error) {
	return wrap(b.quoter.QuoteAddLiquidity(req))
}

func (b *localBackend) ListPairs(context.Context) (*models.ListPairsResponse, error) {
	res := b.quoter.ListPairs(models.ListPairsRequest{})
	return &res, nil
}

func wrap[T any](res T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &res, nil
}
