package rpc

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
)

// QuoteClient calls a quoter server over the connect protocol
type QuoteClient struct {
	feeAmountFrom  *connect.Client[models.FeeRequest, models.FeeResponse]
	feeAmount      *connect.Client[models.FeeRequest, models.FeeResponse]
	compositionFee *connect.Client[models.FeeRequest, models.FeeResponse]
	protocolFee    *connect.Client[models.ProtocolFeeRequest, models.ProtocolFeeResponse]
	pairFees       *connect.Client[models.PairFeesRequest, models.PairFeesResponse]
	price          *connect.Client[models.PriceRequest, models.PriceResponse]
	quoteSwap      *connect.Client[models.QuoteSwapRequest, models.QuoteSwapResponse]
	listPairs      *connect.Client[models.ListPairsRequest, models.ListPairsResponse]
	addLiquidity   *connect.Client[models.QuoteAddLiquidityRequest, models.QuoteAddLiquidityResponse]
}

// NewQuoteClient creates a client for the server at baseURL, e.g. http://localhost:8080
func NewQuoteClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *QuoteClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)

	return &QuoteClient{
		feeAmountFrom:  connect.NewClient[models.FeeRequest, models.FeeResponse](httpClient, baseURL+FeeAmountFromProcedure, opts...),
		feeAmount:      connect.NewClient[models.FeeRequest, models.FeeResponse](httpClient, baseURL+FeeAmountProcedure, opts...),
		compositionFee: connect.NewClient[models.FeeRequest, models.FeeResponse](httpClient, baseURL+CompositionFeeProcedure, opts...),
		protocolFee:    connect.NewClient[models.ProtocolFeeRequest, models.ProtocolFeeResponse](httpClient, baseURL+ProtocolFeeProcedure, opts...),
		pairFees:       connect.NewClient[models.PairFeesRequest, models.PairFeesResponse](httpClient, baseURL+PairFeesProcedure, opts...),
		price:          connect.NewClient[models.PriceRequest, models.PriceResponse](httpClient, baseURL+PriceProcedure, opts...),
		quoteSwap:      connect.NewClient[models.QuoteSwapRequest, models.QuoteSwapResponse](httpClient, baseURL+QuoteSwapProcedure, opts...),
		listPairs:      connect.NewClient[models.ListPairsRequest, models.ListPairsResponse](httpClient, baseURL+ListPairsProcedure, opts...),
		addLiquidity: connect.NewClient[models.QuoteAddLiquidityRequest, models.QuoteAddLiquidityResponse](
			httpClient, baseURL+QuoteAddLiquidityProcedure, opts...),
	}
}

func (c *QuoteClient) FeeAmountFrom(ctx context.Context, req models.FeeRequest) (*models.FeeResponse, error) {
	return call(ctx, c.feeAmountFrom, &req)
}

func (c *QuoteClient) FeeAmount(ctx context.Context, req models.FeeRequest) (*models.FeeResponse, error) {
	return call(ctx, c.feeAmount, &req)
}

func (c *QuoteClient) CompositionFee(ctx context.Context, req models.FeeRequest) (*models.FeeResponse, error) {
	return call(ctx, c.compositionFee, &req)
}

func (c *QuoteClient) ProtocolFee(ctx context.Context, req models.ProtocolFeeRequest) (*models.ProtocolFeeResponse, error) {
	return call(ctx, c.protocolFee, &req)
}

func (c *QuoteClient) PairFees(ctx context.Context, req models.PairFeesRequest) (*models.PairFeesResponse, error) {
	return call(ctx, c.pairFees, &req)
}

func (c *QuoteClient) Price(ctx context.Context, req models.PriceRequest) (*models.PriceResponse, error) {
	return call(ctx, c.price, &req)
}

func (c *QuoteClient) QuoteSwap(ctx context.Context, req models.QuoteSwapRequest) (*models.QuoteSwapResponse, error) {
	return call(ctx, c.quoteSwap, &req)
}

func (c *QuoteClient) QuoteAddLiquidity(
	ctx context.Context,
	req models.QuoteAddLiquidityRequest,
) (*models.QuoteAddLiquidityResponse, error) {
	return call(ctx, c.addLiquidity, &req)
}

func (c *QuoteClient) ListPairs(ctx context.Context) (*models.ListPairsResponse, error) {
	return call(ctx, c.listPairs, &models.ListPairsRequest{})
}

func call[Req, Res any](ctx context.Context, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}
