package rpc_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/Cogwheel-Validator/liquidity-book/lbmath"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/config"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/models"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/pricing"
	"github.com/Cogwheel-Validator/liquidity-book/quoter/rpc"
	"github.com/rs/zerolog"
	"github.com/zeebo/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func init() {
	rpc.SetLogger(zerolog.Nop())
}

func newTestQuoter(t *testing.T) *pricing.Quoter {
	t.Helper()
	q, err := pricing.NewQuoter([]config.PairPreset{
		{
			Name:                     "ATOM-USDC",
			BinStep:                  10,
			BaseFactor:               5000,
			ProtocolShare:            1000,
			MaxVolatilityAccumulator: 350000,
			ReserveX:                 "1000000",
			ReserveY:                 "1000000",
		},
		{Name: "OSMO-ATOM", BinStep: 25, BaseFactor: 8000},
	}, 64)
	assert.NoError(t, err)
	return q
}

func newTestServer(t *testing.T, cfg *rpc.ServerConfig) (*httptest.Server, *rpc.QuoteClient) {
	t.Helper()
	srv, err := rpc.NewServer(context.Background(), cfg, newTestQuoter(t))
	assert.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, rpc.NewQuoteClient(ts.Client(), ts.URL)
}

func TestNewServer_RequiresQuoter(t *testing.T) {
	_, err := rpc.NewServer(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestQuoteProcedures(t *testing.T) {
	_, client := newTestServer(t, nil)
	ctx := context.Background()

	fee, err := client.FeeAmount(ctx, models.FeeRequest{Amount: "1000000", TotalFee: "3000000000000000"})
	assert.NoError(t, err)
	assert.Equal(t, fee.Fee, "3010")
	assert.Equal(t, fee.FeeRate, "0.003")

	fee, err = client.FeeAmountFrom(ctx, models.FeeRequest{Amount: "100", TotalFee: "10"})
	assert.NoError(t, err)
	assert.Equal(t, fee.Fee, "1")

	fee, err = client.CompositionFee(ctx, models.FeeRequest{Amount: "1000000", TotalFee: "0.003"})
	assert.NoError(t, err)
	assert.Equal(t, fee.Fee, "3009")

	protocol, err := client.ProtocolFee(ctx, models.ProtocolFeeRequest{FeeAmount: "1000", ProtocolShare: "50"})
	assert.NoError(t, err)
	assert.Equal(t, protocol.ProtocolFee, "5")

	pairFees, err := client.PairFees(ctx, models.PairFeesRequest{Pair: "ATOM-USDC"})
	assert.NoError(t, err)
	assert.Equal(t, pairFees.TotalFee, "500000000000000")
	assert.Equal(t, pairFees.ProtocolShare, uint16(1000))

	price, err := client.Price(ctx, models.PriceRequest{BinStep: 25, ID: lbmath.RealIDShift + 100})
	assert.NoError(t, err)
	assert.Equal(t, price.Price128x128, "436794915378552100798054128165989473614")

	swap, err := client.QuoteSwap(ctx, models.QuoteSwapRequest{Pair: "ATOM-USDC", SwapForY: true, AmountIn: "10000000"})
	assert.NoError(t, err)
	assert.Equal(t, swap.AmountIn, "1000501")
	assert.Equal(t, swap.AmountOut, "1000000")
	assert.Equal(t, swap.Fee, "501")
	assert.Equal(t, swap.ProtocolFee, "50")

	pairs, err := client.ListPairs(ctx)
	assert.NoError(t, err)
	assert.Equal(t, len(pairs.Pairs), 2)
	assert.Equal(t, pairs.Pairs[1].Name, "OSMO-ATOM")
}

func TestErrorCodes(t *testing.T) {
	_, client := newTestServer(t, nil)
	ctx := context.Background()

	_, err := client.FeeAmount(ctx, models.FeeRequest{Amount: "1", TotalFee: "100000000000000001"})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)
	assert.True(t, strings.Contains(err.Error(), lbmath.ErrFeeTooLarge.Error()))

	_, err = client.ProtocolFee(ctx, models.ProtocolFeeRequest{FeeAmount: "1", ProtocolShare: "2501"})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)

	_, err = client.FeeAmountFrom(ctx, models.FeeRequest{Amount: "-1", TotalFee: "0"})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)

	_, err = client.Price(ctx, models.PriceRequest{BinStep: 10, ID: 0})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)

	_, err = client.PairFees(ctx, models.PairFeesRequest{Pair: "NOPE"})
	assert.Equal(t, connect.CodeOf(err), connect.CodeNotFound)

	_, err = client.QuoteAddLiquidity(ctx, models.QuoteAddLiquidityRequest{
		Pair: "ATOM-USDC", AmountX: "1000", AmountY: "1000",
		Bins: []models.LiquidityBin{{ID: lbmath.RealIDShift + 1, DistributionY: "0.5"}},
	})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)

	_, err = client.QuoteAddLiquidity(ctx, models.QuoteAddLiquidityRequest{
		Pair: "ATOM-USDC", AmountX: "1000", AmountY: "1000",
		Bins: []models.LiquidityBin{{ID: lbmath.RealIDShift, DistributionX: "2.0"}},
	})
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)
}

func TestQuoteAddLiquidityProcedure(t *testing.T) {
	_, client := newTestServer(t, nil)

	res, err := client.QuoteAddLiquidity(context.Background(), models.QuoteAddLiquidityRequest{
		Pair:    "ATOM-USDC",
		AmountX: "1000",
		AmountY: "1000",
		Bins: []models.LiquidityBin{
			{ID: lbmath.RealIDShift, DistributionX: "0.5", DistributionY: "0.5"},
			{ID: lbmath.RealIDShift + 1, DistributionX: "0.5"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, len(res.Bins), 2)
	assert.Equal(t, res.AmountX, "1000")
	assert.Equal(t, res.AmountY, "500")
	assert.Equal(t, res.AmountYLeft, "500")
}

func TestPlainJSONRequests(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Post(ts.URL+rpc.FeeAmountProcedure, "application/json",
		strings.NewReader(`{"amount":"1000","total_fee":"100"}`))
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, resp.StatusCode, http.StatusOK)
	assert.Equal(t, resp.Header.Get("Cache-Control"), "no-store, no-cache, must-revalidate")

	var fee models.FeeResponse
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&fee))
	assert.Equal(t, fee.Fee, "1")

	notFound, err := http.Post(ts.URL+rpc.PairFeesProcedure, "application/json", strings.NewReader(`{"pair":"NOPE"}`))
	assert.NoError(t, err)
	defer func() { _ = notFound.Body.Close() }()
	assert.Equal(t, notFound.StatusCode, http.StatusNotFound)

	badArg, err := http.Post(ts.URL+rpc.FeeAmountProcedure, "application/json",
		strings.NewReader(`{"amount":"1","total_fee":"0.5"}`))
	assert.NoError(t, err)
	defer func() { _ = badArg.Body.Close() }()
	assert.Equal(t, badArg.StatusCode, http.StatusBadRequest)

	var connectErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	assert.NoError(t, json.NewDecoder(badArg.Body).Decode(&connectErr))
	assert.Equal(t, connectErr.Code, "invalid_argument")
}

func TestHealthAndMetrics(t *testing.T) {
	ts, client := newTestServer(t, nil)

	for _, path := range []string{"/server/health", "/server/ready"} {
		resp, err := http.Get(ts.URL + path)
		assert.NoError(t, err)
		assert.Equal(t, resp.StatusCode, http.StatusOK)
		_ = resp.Body.Close()
	}

	_, err := client.PairFees(context.Background(), models.PairFeesRequest{Pair: "OSMO-ATOM"})
	assert.NoError(t, err)
	_, err = client.PairFees(context.Background(), models.PairFeesRequest{Pair: "NOPE"})
	assert.Error(t, err)

	resp, err := http.Get(ts.URL + "/server/metrics")
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)

	metrics := string(body)
	assert.True(t, strings.Contains(metrics, "lb_quoter_requests_total"))
	assert.True(t, strings.Contains(metrics, `procedure="/lb.v1.QuoteService/PairFees"`))
	assert.True(t, strings.Contains(metrics, `code="not_found"`))
	assert.True(t, strings.Contains(metrics, "lb_quoter_request_duration_seconds"))
}

func TestMetricsDisabled(t *testing.T) {
	cfg := rpc.DefaultServerConfig()
	cfg.EnableMetrics = false
	ts, _ := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/server/metrics")
	assert.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, resp.StatusCode, http.StatusNotFound)
}

func TestRateLimit(t *testing.T) {
	cfg := rpc.DefaultServerConfig()
	limit := 2
	cfg.RatePerMinute = &limit
	ts, _ := newTestServer(t, cfg)

	var codes []int
	for i := 0; i < 3; i++ {
		resp, err := http.Get(ts.URL + "/server/health")
		assert.NoError(t, err)
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, codes[0], http.StatusOK)
	assert.Equal(t, codes[1], http.StatusOK)
	assert.Equal(t, codes[2], http.StatusTooManyRequests)
}

func TestCORSPreflight(t *testing.T) {
	cfg := rpc.DefaultServerConfig()
	cfg.AllowedOrigins = []string{"https://app.example"}
	ts, _ := newTestServer(t, cfg)

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+rpc.FeeAmountProcedure, nil)
		assert.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		resp, err := http.DefaultClient.Do(req)
		assert.NoError(t, err)
		_ = resp.Body.Close()
		return resp
	}

	allowed := preflight("https://app.example")
	assert.Equal(t, allowed.Header.Get("Access-Control-Allow-Origin"), "https://app.example")
	assert.Equal(t, allowed.Header.Get("Access-Control-Allow-Credentials"), "true")

	denied := preflight("https://evil.example")
	assert.Equal(t, denied.Header.Get("Access-Control-Allow-Origin"), "")
}

func TestServerWithTracing(t *testing.T) {
	cfg := rpc.DefaultServerConfig()
	cfg.OTelConfig = &rpc.OTelConfig{
		ServiceName:     "lb-quoter-test",
		ServiceVersion:  "test",
		Environment:     "test",
		EnableTracing:   true,
		DevelopmentMode: false,
	}
	srv, err := rpc.NewServer(context.Background(), cfg, newTestQuoter(t))
	assert.NoError(t, err)
	assert.True(t, srv.TelemetryStarted())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// no collector is listening, so the final export may fail
		_ = srv.Shutdown(ctx)
	})

	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDK)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	client := rpc.NewQuoteClient(ts.Client(), ts.URL)

	price, err := client.Price(context.Background(), models.PriceRequest{BinStep: 1, ID: lbmath.RealIDShift})
	assert.NoError(t, err)
	assert.Equal(t, price.Price, "1")
}

func TestReadyWithoutPairs(t *testing.T) {
	q, err := pricing.NewQuoter(nil, 0)
	assert.NoError(t, err)
	srv, err := rpc.NewServer(context.Background(), nil, q)
	assert.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/server/ready")
	assert.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, resp.StatusCode, http.StatusServiceUnavailable)

	var status struct {
		Status string `json:"status"`
		Pairs  int    `json:"pairs"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, status.Pairs, 0)

	health, err := http.Get(ts.URL + "/server/health")
	assert.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, health.StatusCode, http.StatusOK)
}
