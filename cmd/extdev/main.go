package main

import (
	"os"

	"github.com/grovetools/extdev/cli"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"extdev",
		"Local dev server and live-update channel for app extensions",
	)

	rootCmd.AddCommand(cli.NewServeCommand())
	rootCmd.AddCommand(cli.NewValidateCommand())
	rootCmd.AddCommand(cli.NewDispatchCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
