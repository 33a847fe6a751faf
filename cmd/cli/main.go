package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/culprit/cmd/cli/casecmd"
	"github.com/spf13/cobra"
)

func init() {
	// A missing .env is fine; the commands run on flags and arguments alone.
	_ = godotenv.Load()
	rootCmd.AddGroup(casecmd.Group)
	rootCmd.AddCommand(casecmd.Validate)
	rootCmd.AddCommand(casecmd.Simulate)
	rootCmd.AddCommand(casecmd.Watch)
}

var rootCmd = &cobra.Command{
	Use:  "culprit-cli",
	Long: `Command line utilities for Culprit https://github.com/myrjola/culprit`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
