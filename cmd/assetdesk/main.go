// Assetdesk is the command-line client for an assetdesk server.
//
// It signs in through the server's login form, either with an interactive
// terminal form or line by line for scripts, and then lists the asset
// register. Servers can be found on the local network over mDNS and saved
// as profiles.
//
// Usage:
//
//	assetdesk [command] [flags]
//
// Running without arguments signs in to the default profile.
// See 'assetdesk --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/assetdesk/internal/logging"
	"github.com/muurk/assetdesk/internal/version"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("already reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "assetdesk",
	Short: "Asset register client",
	Long: `A command-line client for assetdesk servers.

Signs in through the server's login form and lists the asset register.
Servers on the local network can be found with 'assetdesk discover'.

If no command is specified, 'assetdesk login' runs against the default profile.`,
	Version:      version.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(cmd, args)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("assetdesk %s (commit: %s)\n", version.Version, version.Commit)
	},
}
