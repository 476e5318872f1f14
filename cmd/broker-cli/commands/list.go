package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every non-expired key and its expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			items, err := c.List()
			if err != nil {
				output.Error(err.Error())
				return err
			}
			if len(items) == 0 {
				output.Dim("no keys")
				return nil
			}
			for key, item := range items {
				output.Info(fmt.Sprintf("%s  expires=%d", key, item.ExpiresAt))
			}
			return nil
		},
	}
}
