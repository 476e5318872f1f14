package client

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brokerd/broker/internal/leasestore"
	"github.com/brokerd/broker/internal/observability"
	"github.com/brokerd/broker/internal/valuestore"
	"github.com/brokerd/broker/internal/wire"
)

func startTestBroker(t *testing.T) string {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "broker.sock")
	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)

	metrics := observability.NewMetrics()
	deps := &wire.Deps{
		Values: valuestore.New(valuestore.Config{
			DefaultTTL:   time.Minute,
			MaxValueSize: 1 << 20,
		}, metrics),
		Leases:    leasestore.New(leasestore.Config{DefaultTTL: time.Minute}),
		Metrics:   metrics,
		StartedAt: time.Now(),
	}
	srv := wire.NewServer(ln, deps, nil, 0, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.Serve(ctx)

	t.Cleanup(func() { ln.Close(); os.Remove(sockPath) })
	return sockPath
}

func TestClient_SetGetDel(t *testing.T) {
	sockPath := startTestBroker(t)
	c, err := Dial(context.Background(), Config{Endpoint: sockPath})
	require.NoError(t, err)
	defer c.Close()

	ttl := int64(60_000)
	require.NoError(t, c.Set("foo", "bar", SetOptions{TTL: &ttl}))

	value, compressed, err := c.Get("foo")
	require.NoError(t, err)
	assert.False(t, compressed)
	assert.JSONEq(t, `"bar"`, string(value))

	require.NoError(t, c.Del("foo"))
	_, _, err = c.Get("foo")
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, "not_found", wireErr.Token)
}

func TestClient_LeaseAndRelease(t *testing.T) {
	sockPath := startTestBroker(t)
	c, err := Dial(context.Background(), Config{Endpoint: sockPath})
	require.NoError(t, err)
	defer c.Close()

	v, err := c.Lease("pool", "worker-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	released, err := c.Release("worker-1")
	require.NoError(t, err)
	assert.True(t, released)
}

func TestClient_RequireTTLLocalPreCheck(t *testing.T) {
	sockPath := startTestBroker(t)
	c, err := Dial(context.Background(), Config{Endpoint: sockPath, RequireTTL: true})
	require.NoError(t, err)
	defer c.Close()

	err = c.Set("foo", "bar", SetOptions{})
	require.Error(t, err)
	var wireErr *Error
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, "ttl_required", wireErr.Token)
}

func TestClient_DialTimeoutOnMissingEndpoint(t *testing.T) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, Config{
		Endpoint:       filepath.Join(t.TempDir(), "does-not-exist.sock"),
		ConnectTimeout: 300 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := map[string]any{"hello": "world", "n": float64(42)}
	encoded, before, after, err := CompressJSON(original)
	require.NoError(t, err)
	assert.Positive(t, before)
	assert.Positive(t, after)

	var decoded map[string]any
	require.NoError(t, DecompressJSON("k", encoded, &decoded))
	assert.Equal(t, original, decoded)
}

func TestDecompressJSON_BadInputIncludesKeyHint(t *testing.T) {
	err := DecompressJSON("mykey", "not-base64!!", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mykey")
}
