// Package logger constructs the broker's zap.Logger, honoring the
// log_level and structured_logging configuration options (spec §6). The
// core treats logging as an external sink: every event carries a
// severity, and handlers attach a correlation ID via zap fields rather
// than through any broker-specific logging API.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger for service, honoring level and whether
// output should be structured JSON or human-readable console lines.
func New(service, level string, structured bool) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("logger: invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if !structured {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.OutputPaths = []string{"stdout"}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return l.Named(service), nil
}
