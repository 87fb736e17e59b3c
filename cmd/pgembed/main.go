// pgembed is a command line front end for the embedded PostgreSQL lifecycle:
// prefetch server binaries into the per-user cache, run a disposable server
// in the foreground, and purge the cache again.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "pgembed",
	Short: "Run throwaway PostgreSQL servers without an installation",
	Long: `pgembed downloads PostgreSQL server binaries for the host platform,
caches them per user, and drives initdb / pg_ctl to run disposable
database servers.

Examples:
  # Download the binaries for the default version into the cache
  pgembed fetch

  # Run a server on a free port until interrupted
  pgembed run

  # Run a persistent server on a fixed port and data directory
  pgembed run --port 5433 --data-dir ~/pg/data --persistent

  # Remove every cached binaries version
  pgembed purge`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(fetchCmd, runCmd, purgeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
