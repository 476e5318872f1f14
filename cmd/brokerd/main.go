package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string
	var spawnArgs []string

	cmd := &cobra.Command{
		Use:   "brokerd",
		Short: "Ephemeral key/value and lease broker daemon",
		Long:  "brokerd listens on a local stream endpoint and serves the broker's newline-delimited JSON protocol until drained or signalled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(configFile, spawnArgs)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "optional YAML configuration overlay")
	cmd.Flags().StringArrayVar(&spawnArgs, "spawn", nil, "command (and args) to launch once listening; repeat the flag per argument")
	return cmd
}
