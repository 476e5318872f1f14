package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show broker health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			health, err := c.Health()
			if err != nil {
				output.Error(err.Error())
				return err
			}
			status, _ := health["status"].(string)
			if status == "degraded" {
				output.Warn(fmt.Sprintf("status: %s", status))
			} else {
				output.Success(fmt.Sprintf("status: %s", status))
			}
			output.Dim(fmt.Sprintf("inFlight=%v draining=%v", health["inFlight"], health["draining"]))
			return nil
		},
	}
}
