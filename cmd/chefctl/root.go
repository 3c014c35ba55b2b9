// Command chefctl operates a chef learning server: it drives it with
// synthetic feedback, prints its stats and inspects persisted snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "chefctl",
	Short: "Operate the chef learning server",
	Long:  "chefctl drives a chef learning server with synthetic feedback,\nprints what it learned and inspects persisted snapshots.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
