package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/client"
	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a value by key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			value, compressed, err := c.Get(key)
			if err != nil {
				var wireErr *client.Error
				if errors.As(err, &wireErr) && wireErr.Token == "not_found" {
					output.Warn(fmt.Sprintf("key %q not found", key))
					return nil
				}
				output.Error(err.Error())
				return err
			}
			output.Success(fmt.Sprintf("key: %s", key))
			output.Info(fmt.Sprintf("value: %s", string(value)))
			if compressed {
				output.Dim("compressed: true")
			}
			return nil
		},
	}
}
