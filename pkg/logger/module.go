package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brokerd/broker/pkg/config"
)

// Module provides a *zap.Logger built from the resolved Config.
func Module(service string) fx.Option {
	return fx.Provide(
		func(cfg *config.Config) (*zap.Logger, error) {
			return New(service, cfg.LogLevel, cfg.StructuredLogging)
		},
	)
}
