package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/client"
	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newSetCommand() *cobra.Command {
	var ttlMS int64
	var compressed bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key to a value, optionally with a TTL in milliseconds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, raw := args[0], args[1]

			var value any = raw
			var decoded any
			if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
				value = decoded
			}

			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			opts := client.SetOptions{Compressed: compressed}
			if cmd.Flags().Changed("ttl") {
				opts.TTL = &ttlMS
			}
			if err := c.Set(key, value, opts); err != nil {
				output.Error(err.Error())
				return err
			}
			output.Success(fmt.Sprintf("set %s", key))
			return nil
		},
	}
	cmd.Flags().Int64Var(&ttlMS, "ttl", 0, "TTL in milliseconds")
	cmd.Flags().BoolVar(&compressed, "compressed", false, "mark the value as already gzip+base64 compressed")
	return cmd
}
