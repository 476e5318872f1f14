package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newLeaseCommand() *cobra.Command {
	var ttlMS int64

	cmd := &cobra.Command{
		Use:   "lease <pool> [worker-id]",
		Short: "Allocate or renew a lease for a worker in a pool",
		Long:  "Allocate or renew a lease for a worker in a pool. If worker-id is omitted, a random one is generated.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := args[0]
			worker := ""
			if len(args) == 2 {
				worker = args[1]
			}
			if worker == "" {
				worker = uuid.NewString()
				output.Dim(fmt.Sprintf("generated worker id %s", worker))
			}
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			var ttl *int64
			if cmd.Flags().Changed("ttl") {
				ttl = &ttlMS
			}
			value, err := c.Lease(pool, worker, ttl)
			if err != nil {
				output.Error(err.Error())
				return err
			}
			output.Success(fmt.Sprintf("leased %s/%s -> %d", pool, worker, value))
			return nil
		},
	}
	cmd.Flags().Int64Var(&ttlMS, "ttl", 0, "TTL in milliseconds")
	return cmd
}
