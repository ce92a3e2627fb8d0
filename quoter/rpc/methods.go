package rpc

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/pricing"
)

// QuoteServiceName is the fully qualified name of the quote service
const QuoteServiceName = "lb.v1.QuoteService"

const (
	FeeAmountFromProcedure  = "/" + QuoteServiceName + "/FeeAmountFrom"
	FeeAmountProcedure      = "/" + QuoteServiceName + "/FeeAmount"
	CompositionFeeProcedure = "/" + QuoteServiceName + "/CompositionFee"
	ProtocolFeeProcedure    = "/" + QuoteServiceName + "/ProtocolFee"
	PairFeesProcedure       = "/" + QuoteServiceName + "/PairFees"
	PriceProcedure          = "/" + QuoteServiceName + "/Price"
	QuoteSwapProcedure      = "/" + QuoteServiceName + "/QuoteSwap"
	ListPairsProcedure      = "/" + QuoteServiceName + "/ListPairs"

	QuoteAddLiquidityProcedure = "/" + QuoteServiceName + "/QuoteAddLiquidity"
)

// QuoteServer exposes a pricing.Quoter over connect
type QuoteServer struct {
	quoter *pricing.Quoter
}

func NewQuoteServer(quoter *pricing.Quoter) *QuoteServer {
	return &QuoteServer{quoter: quoter}
}

func (s *QuoteServer) listPairs(req models.ListPairsRequest) (models.ListPairsResponse, error) {
	return s.quoter.ListPairs(req), nil
}

// NewQuoteServiceHandler builds the handler of every quote procedure and
// returns the path prefix to mount it on.
func NewQuoteServiceHandler(s *QuoteServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(FeeAmountFromProcedure, connect.NewUnaryHandler(FeeAmountFromProcedure, unary(s.quoter.FeeAmountFrom), opts...))
	mux.Handle(FeeAmountProcedure, connect.NewUnaryHandler(FeeAmountProcedure, unary(s.quoter.FeeAmount), opts...))
	mux.Handle(CompositionFeeProcedure, connect.NewUnaryHandler(CompositionFeeProcedure, unary(s.quoter.CompositionFee), opts...))
	mux.Handle(ProtocolFeeProcedure, connect.NewUnaryHandler(ProtocolFeeProcedure, unary(s.quoter.ProtocolFee), opts...))
	mux.Handle(PairFeesProcedure, connect.NewUnaryHandler(PairFeesProcedure, unary(s.quoter.PairFees), opts...))
	mux.Handle(PriceProcedure, connect.NewUnaryHandler(PriceProcedure, unary(s.quoter.Price), opts...))
	mux.Handle(QuoteSwapProcedure, connect.NewUnaryHandler(QuoteSwapProcedure, unary(s.quoter.QuoteSwap), opts...))
	mux.Handle(QuoteAddLiquidityProcedure, connect.NewUnaryHandler(QuoteAddLiquidityProcedure, unary(s.quoter.QuoteAddLiquidity), opts...))
	mux.Handle(ListPairsProcedure, connect.NewUnaryHandler(ListPairsProcedure, unary(s.listPairs), opts...))

	return "/" + QuoteServiceName + "/", mux
}

// unary adapts a quoter method to a connect unary function
func unary[Req, Res any](
	fn func(Req) (Res, error),
) func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error) {
	return func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
		res, err := fn(*req.Msg)
		if err != nil {
			return nil, toConnectError(err)
		}
		return connect.NewResponse(&res), nil
	}
}
