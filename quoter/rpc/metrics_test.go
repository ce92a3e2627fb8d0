package rpc

import (
	"context"
	"errors"
	"testing"

	"connectrpc.com/connect"
	"github.com/zeebo/assert"
)

func TestQuoteCounterAlwaysSet(t *testing.T) {
	assert.True(t, quoteCounter != nil)
}

func TestMetricsInterceptorPassesThrough(t *testing.T) {
	want := connect.NewError(connect.CodeNotFound, errors.New("missing"))
	next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, want
	}

	req := connect.NewRequest(&struct{}{})
	_, err := metricsInterceptor()(next)(context.Background(), req)
	assert.Equal(t, err, error(want))
	assert.Equal(t, resultCode(err), "not_found")
	assert.Equal(t, resultCode(nil), "ok")
}
