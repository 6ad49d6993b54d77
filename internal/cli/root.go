// Package cli implements the Paydirt command-line interface using Cobra.
// Apart from serve, every subcommand is a thin HTTP client against a
// running daemon; the --as flag names the principal acting.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paydirt",
	Short: "Paydirt — trustless micro-task escrow marketplace",
	Long: `Paydirt runs a local escrow marketplace for micro-tasks.
Creators fund tasks, workers claim and complete them, and the escrow
engine guarantees each reward is paid out exactly once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var flagPrincipal string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPrincipal, "as", "", "Principal to act as (default $PAYDIRT_PRINCIPAL, then $USER)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
