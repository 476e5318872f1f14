package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brokerd/broker/internal/leasestore"
	"github.com/brokerd/broker/internal/observability"
	"github.com/brokerd/broker/internal/sweeper"
	"github.com/brokerd/broker/internal/valuestore"
	"github.com/brokerd/broker/internal/wire"
)

func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	metrics := observability.NewMetrics()
	values := valuestore.New(valuestore.Config{DefaultTTL: time.Minute, MaxValueSize: 1 << 20}, metrics)
	leases := leasestore.New(leasestore.Config{DefaultTTL: time.Minute})
	sweep := sweeper.New(values, leases, metrics, 50*time.Millisecond, zaptest.NewLogger(t))

	deps := &wire.Deps{
		Values:    values,
		Leases:    leases,
		Metrics:   metrics,
		StartedAt: time.Now(),
	}
	srv := wire.NewServer(nil, deps, nil, 0, zaptest.NewLogger(t))

	// cfg.EndpointSuffix isolates each test's socket path so parallel runs
	// never collide on a shared temp directory.
	if cfg.EndpointSuffix == "" {
		cfg.EndpointSuffix = t.Name()
	}
	return New(cfg, zaptest.NewLogger(t), srv, values, leases, sweep)
}

func TestController_StartAssignsEndpointAndListens(t *testing.T) {
	c := newTestController(t, Config{SweeperInterval: 50 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Start(ctx))
	defer c.Stop()

	assert.Equal(t, Listening, c.State())
	assert.NotEmpty(t, c.EndpointPath())
}

func TestController_DrainThenStopIsIdempotent(t *testing.T) {
	c := newTestController(t, Config{SweeperInterval: 50 * time.Millisecond, DrainTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))

	outcome := c.Drain(time.Second)
	assert.Equal(t, "drained", outcome)
	assert.Equal(t, Draining, c.State())

	require.NoError(t, c.Stop())
	assert.Equal(t, Stopped, c.State())

	// A second Stop is a no-op, not an error.
	require.NoError(t, c.Stop())
}

func TestController_DoubleStartRejected(t *testing.T) {
	c := newTestController(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Start(ctx))
	defer c.Stop()

	err := c.Start(ctx)
	assert.Error(t, err)
}

func TestController_DrainOnFreshOrStoppedReportsTimeout(t *testing.T) {
	c := newTestController(t, Config{})
	assert.Equal(t, "drain_timeout", c.Drain(time.Second))

	require.NoError(t, c.Stop())
	assert.Equal(t, "drain_timeout", c.Drain(time.Second))
}
