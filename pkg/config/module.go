package config

import "go.uber.org/fx"

// Module provides Config wired from the process environment and an
// optional config file path.
func Module(opts Options) fx.Option {
	return fx.Provide(
		func() (*Config, error) {
			return Load(opts)
		},
	)
}
