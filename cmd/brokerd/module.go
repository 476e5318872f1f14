package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/brokerd/broker/internal/httpexport"
	"github.com/brokerd/broker/internal/leasestore"
	"github.com/brokerd/broker/internal/lifecycle"
	"github.com/brokerd/broker/internal/observability"
	"github.com/brokerd/broker/internal/sweeper"
	"github.com/brokerd/broker/internal/valuestore"
	"github.com/brokerd/broker/internal/wire"
	"github.com/brokerd/broker/pkg/config"
)

// SpawnArgs is the command (and its arguments) to launch once the
// broker is listening, as passed to `brokerd --spawn`. An empty slice
// means no child process is supervised.
type SpawnArgs []string

func NewValueStore(cfg *config.Config, metrics *observability.Metrics) *valuestore.Store {
	return valuestore.New(valuestore.Config{
		DefaultTTL:   cfg.DefaultTTL,
		RequireTTL:   cfg.RequireTTL,
		MaxItems:     cfg.MaxItems,
		MaxValueSize: cfg.MaxValueSize,
	}, metrics)
}

func NewLeaseStore(cfg *config.Config) *leasestore.Store {
	return leasestore.New(leasestore.Config{DefaultTTL: cfg.DefaultTTL})
}

func NewSweeper(cfg *config.Config, values *valuestore.Store, leases *leasestore.Store, metrics *observability.Metrics, logger *zap.Logger) *sweeper.Sweeper {
	return sweeper.New(values, leases, metrics, cfg.SweeperInterval, logger)
}

func NewAuthenticator(cfg *config.Config) *wire.Authenticator {
	return wire.NewAuthenticator(cfg.Secret)
}

func NewDeps(cfg *config.Config, values *valuestore.Store, leases *leasestore.Store, metrics *observability.Metrics, logger *zap.Logger) *wire.Deps {
	return &wire.Deps{
		Values:    values,
		Leases:    leases,
		Metrics:   metrics,
		MaxItems:  cfg.MaxItems,
		StartedAt: time.Now(),
		Logger:    logger,
		Degraded:  &observability.DegradedTracker{},
	}
}

func NewWireServer(deps *wire.Deps, auth *wire.Authenticator, cfg *config.Config, logger *zap.Logger) *wire.Server {
	return wire.NewServer(nil, deps, auth, cfg.MaxRequestSize, logger)
}

func NewController(cfg *config.Config, logger *zap.Logger, server *wire.Server, values *valuestore.Store, leases *leasestore.Store, sweep *sweeper.Sweeper) *lifecycle.Controller {
	return lifecycle.New(lifecycle.Config{
		SweeperInterval:   cfg.SweeperInterval,
		IdleTimeout:       cfg.IdleTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
		DrainTimeout:      5 * time.Second,
		EndpointSuffix:    cfg.PipeID,
		Secret:            cfg.Secret,
		MaxItems:          cfg.MaxItems,
	}, logger, server, values, leases, sweep)
}

func NewHTTPExportServer(metrics *observability.Metrics, controller *lifecycle.Controller, logger *zap.Logger) *httpexport.Server {
	return httpexport.New(metrics, controller, logger)
}

func NewHTTPServer(exporter *httpexport.Server) *http.Server {
	return &http.Server{Addr: ":9090", Handler: exporter.Router()}
}
