package main

import (
	"fmt"
	"os"

	"github.com/brokerd/broker/cmd/broker-cli/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
