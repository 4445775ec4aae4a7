// Command portalctl runs administrative tasks against the portal database:
// bootstrapping the first Admin, managing lockouts and running cleanup.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	success = color.New(color.FgGreen, color.Bold)
	failure = color.New(color.FgRed, color.Bold)
	muted   = color.New(color.Faint)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Administrative tasks for the customer payment portal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(bootstrapAdminCmd())
	rootCmd.AddCommand(unlockCmd())
	rootCmd.AddCommand(lockedCmd())
	rootCmd.AddCommand(cleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		failure.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
