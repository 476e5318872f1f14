package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brokerd/broker/cmd/broker-cli/output"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show broker statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dial(context.Background())
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.Stats()
			if err != nil {
				output.Error(err.Error())
				return err
			}
			output.Info(fmt.Sprintf("items: %v", stats["items"]))
			output.Info(fmt.Sprintf("leases: %v", stats["leases"]))
			output.Info(fmt.Sprintf("uptimeMs: %v", stats["uptimeMs"]))
			if mem, ok := stats["memory"].(map[string]any); ok {
				if rss, ok := mem["residentBytes"].(float64); ok {
					output.Dim(fmt.Sprintf("resident: %s", output.Bytes(uint64(rss))))
				}
			}
			return nil
		},
	}
}
