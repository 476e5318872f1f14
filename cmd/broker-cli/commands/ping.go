package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the broker is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			pong, err := c.Ping()
			if err != nil {
				output.Error(fmt.Sprintf("ping failed: %v", err))
				return err
			}
			output.Success(fmt.Sprintf("pong: %d", pong))
			return nil
		},
	}
}
