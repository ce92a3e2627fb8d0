package rpc

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/Cogwheel-Validator/liquidity-book/quoter/rpc"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lb",
		Subsystem: "quoter",
		Name:      "requests_total",
		Help:      "Quote requests by procedure and result code.",
	}, []string{"procedure", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lb",
		Subsystem: "quoter",
		Name:      "request_duration_seconds",
		Help:      "Quote request latency by procedure.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"procedure"})
)

// otel instruments resolve against the global meter provider, which is a
// no-op until NewOTelSDK installs one
var quoteCounter metric.Int64Counter = noop.Int64Counter{}

func init() {
	counter, err := otel.Meter(meterName).Int64Counter(
		"lb.quoter.requests",
		metric.WithDescription("Quote requests by procedure and result code"),
	)
	if err != nil {
		Logger.Error().Err(err).Msg("Failed to create otel request counter")
		return
	}
	quoteCounter = counter
}

// resultCode returns the connect code of err, "ok" for nil
func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	return connect.CodeOf(err).String()
}

// metricsInterceptor counts requests and records their latency
func metricsInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			procedure := req.Spec().Procedure
			code := resultCode(err)
			requestsTotal.WithLabelValues(procedure, code).Inc()
			requestDuration.WithLabelValues(procedure).Observe(time.Since(start).Seconds())
			quoteCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("procedure", procedure),
				attribute.String("code", code),
			))

			return resp, err
		}
	}
}
