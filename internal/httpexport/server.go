// Package httpexport exposes the broker's C8 observability surface over
// a conventional HTTP endpoint, for Prometheus scraping and simple
// liveness probes alongside the primary socket protocol. This is a
// convenience: every value it serves is also reachable via the "health"
// and "metrics" socket actions.
package httpexport

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/brokerd/broker/internal/observability"
)

// RuntimeSource is the subset of the lifecycle controller and store
// state the exported endpoints need.
type RuntimeSource interface {
	InFlight() int
	Draining() bool
	Uptime() int64 // milliseconds
	ItemCount() int
	MaxItems() int
}

// Server serves /healthz and /metrics.
type Server struct {
	router  *mux.Router
	metrics *observability.Metrics
	runtime RuntimeSource
	logger  *zap.Logger
}

// New constructs a Server wired to metrics and a runtime source.
func New(metrics *observability.Metrics, runtime RuntimeSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:  mux.NewRouter(),
		metrics: metrics,
		runtime: runtime,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

// Router returns the http.Handler to hand to an http.Server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	capacity := observability.AssessCapacity(s.runtime.ItemCount(), s.runtime.MaxItems())
	h := observability.BuildHealth(
		s.runtime.Uptime(),
		time.Now().UnixMilli(),
		capacity,
		observability.ReadMemory(),
		s.runtime.InFlight(),
		s.runtime.Draining(),
	)
	w.Header().Set("Content-Type", "application/json")
	if h.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_, _ = w.Write(healthJSON(h))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	text, err := s.metrics.Render()
	if err != nil {
		s.logger.Error("render metrics failed", zap.Error(err))
		http.Error(w, "internal_error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(text))
}

func healthJSON(h observability.Health) []byte {
	data, err := json.Marshal(h)
	if err != nil {
		return []byte(`{"ok":false,"error":"internal_error"}`)
	}
	return data
}
