// Package config loads the broker's configuration surface (spec §6): a
// set of options each bound to a BROKER_<UPPER_SNAKE> environment
// variable, with defaults and an optional YAML overlay file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-resolved broker configuration.
type Config struct {
	DefaultTTL           time.Duration
	RequireTTL           bool
	MaxItems             int
	MaxRequestSize       int
	MaxValueSize         int
	Secret               string
	SweeperInterval      time.Duration
	IdleTimeout          time.Duration
	HeartbeatInterval    time.Duration
	LogLevel             string
	StructuredLogging    bool
	Compression          bool
	CompressionThreshold int
	PipeID               string
}

// Options overrides Load's default source selection.
type Options struct {
	// ConfigFile, when set, is read as a YAML overlay on top of defaults
	// before environment variables are applied.
	ConfigFile string
}

var defaults = map[string]any{
	"default_ttl":           1_800_000,
	"require_ttl":           true,
	"max_items":             10_000,
	"max_request_size":      1_048_576,
	"max_value_size":        262_144,
	"secret":                "",
	"sweeper_interval":      30_000,
	"idle_timeout":          0,
	"heartbeat_interval":    0,
	"log_level":             "info",
	"structured_logging":    false,
	"compression":           true,
	"compression_threshold": 1_024,
	"pipe_id":               "",
}

// Load builds a Config from defaults, an optional YAML file, and
// BROKER_-prefixed environment variables, in that precedence order
// (env wins).
func Load(opts Options) (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix("BROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	}

	cfg := &Config{
		DefaultTTL:           time.Duration(v.GetInt64("default_ttl")) * time.Millisecond,
		RequireTTL:           v.GetBool("require_ttl"),
		MaxItems:             v.GetInt("max_items"),
		MaxRequestSize:       v.GetInt("max_request_size"),
		MaxValueSize:         v.GetInt("max_value_size"),
		Secret:               v.GetString("secret"),
		SweeperInterval:      time.Duration(v.GetInt64("sweeper_interval")) * time.Millisecond,
		IdleTimeout:          time.Duration(v.GetInt64("idle_timeout")) * time.Millisecond,
		HeartbeatInterval:    time.Duration(v.GetInt64("heartbeat_interval")) * time.Millisecond,
		LogLevel:             v.GetString("log_level"),
		StructuredLogging:    v.GetBool("structured_logging"),
		Compression:          v.GetBool("compression"),
		CompressionThreshold: v.GetInt("compression_threshold"),
		PipeID:               v.GetString("pipe_id"),
	}
	return cfg, nil
}
