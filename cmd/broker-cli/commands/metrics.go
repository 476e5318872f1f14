package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newMetricsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the broker's Prometheus text-format metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			text, err := c.Metrics()
			if err != nil {
				output.Error(err.Error())
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}
