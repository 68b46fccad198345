package server

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPredictor/internal/service/ratelimit"
	xhttp "TrendPredictor/pkg/http"
	"TrendPredictor/pkg/logger"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func newTestServer(port int) *xhttp.Server {
	reg := prometheus.NewRegistry()
	return xhttp.NewServer(logger.Nop(), nil,
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(port),
		xhttp.WithMetrics("", reg, reg),
	)
}

func TestRunContextStopsOnCancel(t *testing.T) {
	app := New(logger.Nop(), newTestServer(0), nil, nil, ratelimit.New(1, 1), time.Second)

	var order []string
	app.AddCloser(closerFunc(func() error { order = append(order, "first"); return nil }))
	app.AddCloser(closerFunc(func() error { order = append(order, "second"); return nil }))
	app.AddCloser(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, app.RunContext(ctx))
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestRunContextReturnsListenError(t *testing.T) {
	app := New(logger.Nop(), newTestServer(-1), nil, nil, nil, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.Error(t, app.RunContext(ctx))
}
