package commands

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/client"
	"github.com/brokerd/broker/internal/lifecycle"
)

var (
	flagEndpoint string
	flagSecret   string
	flagTimeout  time.Duration
)

// NewRootCommand builds the broker-cli root command with every
// subcommand registered.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "broker-cli",
		Short: "Command-line client for the ephemeral key/value and lease broker",
		Long:  "broker-cli talks to a running brokerd over its local stream endpoint, discovered from BROKER_ENDPOINT_PATH unless overridden.",
	}

	root.PersistentFlags().StringVar(&flagEndpoint, "endpoint", os.Getenv(lifecycle.EnvEndpointPath), "broker endpoint path (unix socket or named pipe)")
	root.PersistentFlags().StringVar(&flagSecret, "secret", os.Getenv(lifecycle.EnvSecret), "shared HMAC secret, if the broker requires one")
	root.PersistentFlags().DurationVar(&flagTimeout, "connect-timeout", 5*time.Second, "connect-retry budget")

	for _, cmd := range []*cobra.Command{
		newPingCommand(),
		newGetCommand(),
		newSetCommand(),
		newDeleteCommand(),
		newListCommand(),
		newLeaseCommand(),
		newReleaseCommand(),
		newStatsCommand(),
		newHealthCommand(),
		newMetricsCommand(),
	} {
		root.AddCommand(cmd)
	}
	return root
}

func dial(ctx context.Context) (*client.Client, error) {
	return client.Dial(ctx, client.Config{
		Endpoint:       flagEndpoint,
		Secret:         flagSecret,
		ConnectTimeout: flagTimeout,
	})
}
