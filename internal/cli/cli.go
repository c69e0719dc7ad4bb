// Package cli wraps the Orchestrator in a command-line surface for
// operators and CI, standing in for the out-of-scope UI shell.
//
// Grounded on codex-helper/internal/cli/cli.go's spf13/cobra root
// command construction (newRootCmd, PersistentFlags, subcommand
// registration via cmd.AddCommand).
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var buildVersion = "v0.1.0"

type rootOptions struct {
	basePath          string
	updateInfoURL     string
	publicKeyPath     string
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	logLevel          string
}

// Execute builds and runs the root command, returning a process exit
// code (spec §6 "CLI exit codes": 0 on success, 1 on failure).
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "meineapp-launcher",
		Short:         "Self-updating launcher for MeineApp",
		SilenceErrors: false,
		SilenceUsage:  true,
		Version:       buildVersion,
	}

	cmd.PersistentFlags().StringVar(&opts.basePath, "base-path", "", "Launcher state directory (default: OS user home/MeineFirma/MeineApp)")
	cmd.PersistentFlags().StringVar(&opts.updateInfoURL, "update-url", "", "URL returning update metadata JSON")
	cmd.PersistentFlags().StringVar(&opts.publicKeyPath, "public-key-path", "", "Path to the PEM-encoded manifest signing public key")
	cmd.PersistentFlags().DurationVar(&opts.heartbeatInterval, "heartbeat-interval", 0, "Heartbeat poll interval")
	cmd.PersistentFlags().DurationVar(&opts.heartbeatTimeout, "heartbeat-timeout", 0, "Heartbeat advisory timeout")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(opts),
		newStatusCmd(opts),
		newWipeCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the launcher's own build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), buildVersion)
			return nil
		},
	}
}
