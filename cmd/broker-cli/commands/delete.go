package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Delete a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Del(key); err != nil {
				output.Error(err.Error())
				return err
			}
			output.Success(fmt.Sprintf("deleted %s", key))
			return nil
		},
	}
}
