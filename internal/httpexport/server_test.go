package httpexport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/brokerd/broker/internal/observability"
)

type fakeRuntime struct {
	inFlight int
	draining bool
	uptime   int64
	items    int
	maxItems int
}

func (f *fakeRuntime) InFlight() int  { return f.inFlight }
func (f *fakeRuntime) Draining() bool { return f.draining }
func (f *fakeRuntime) Uptime() int64  { return f.uptime }
func (f *fakeRuntime) ItemCount() int { return f.items }
func (f *fakeRuntime) MaxItems() int  { return f.maxItems }

func TestServer_Healthz(t *testing.T) {
	metrics := observability.NewMetrics()
	rt := &fakeRuntime{uptime: 1234}
	srv := New(metrics, rt, zaptest.NewLogger(t))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_HealthzReportsDegradedAtCapacity(t *testing.T) {
	metrics := observability.NewMetrics()
	rt := &fakeRuntime{items: 10, maxItems: 10}
	srv := New(metrics, rt, zaptest.NewLogger(t))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_Metrics(t *testing.T) {
	metrics := observability.NewMetrics()
	metrics.RecordOperation("get", true)
	rt := &fakeRuntime{}
	srv := New(metrics, rt, zaptest.NewLogger(t))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
