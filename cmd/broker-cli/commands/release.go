package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release <worker-id>",
		Short: "Release a worker's lease, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			worker := args[0]
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			released, err := c.Release(worker)
			if err != nil {
				output.Error(err.Error())
				return err
			}
			if released {
				output.Success(fmt.Sprintf("released %s", worker))
			} else {
				output.Dim(fmt.Sprintf("%s held no lease", worker))
			}
			return nil
		},
	}
}
