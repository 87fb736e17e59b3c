package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgembed/pgembed"
)

var (
	runDataDir    string
	runPort       int
	runUser       string
	runPassword   string
	runAuth       string
	runPersistent bool
	runTimeout    time.Duration
	runVersion    string
	runMigrations string
	runCacheDir   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a server in the foreground until interrupted",
	Long: `Set up and start an embedded PostgreSQL server, print its connection
URI, and keep it running until SIGINT or SIGTERM. Non-persistent
servers remove their data directory on shutdown.

Examples:
  # Disposable server on a free port
  pgembed run

  # Fixed port, kept across runs
  pgembed run --port 5433 --data-dir ~/pg/data --persistent

  # Apply SQL migrations after startup
  pgembed run --migrations ./migrations`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "Data directory (default: a fresh temp directory)")
	runCmd.Flags().IntVar(&runPort, "port", 0, "Port to listen on (0 picks a free port)")
	runCmd.Flags().StringVar(&runUser, "user", pgembed.DefaultUser, "Database superuser")
	runCmd.Flags().StringVar(&runPassword, "password", pgembed.DefaultPassword, "Superuser password")
	runCmd.Flags().StringVar(&runAuth, "auth", "plain", "Authentication method (plain|md5|scram-sha-256)")
	runCmd.Flags().BoolVar(&runPersistent, "persistent", false, "Keep the data directory on shutdown")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", pgembed.DefaultTimeout, "Timeout per server command")
	runCmd.Flags().StringVar(&runVersion, "version", string(pgembed.DefaultVersion), "Server version to run")
	runCmd.Flags().StringVar(&runMigrations, "migrations", "", "Directory of SQL migrations to apply after startup")
	runCmd.Flags().StringVar(&runCacheDir, "cache-dir", "", "Cache directory override (default: per-user cache root)")
}

func parseAuth(s string) (pgembed.AuthMethod, error) {
	switch s {
	case "plain":
		return pgembed.AuthPlain, nil
	case "md5":
		return pgembed.AuthMD5, nil
	case "scram-sha-256":
		return pgembed.AuthScramSHA256, nil
	}
	return 0, fmt.Errorf("unknown authentication method %q (want plain, md5, or scram-sha-256)", s)
}

// shutdownAfter tears the server down when a startup step fails, so a
// non-persistent data directory does not linger, and returns the original
// error.
func shutdownAfter(ctx context.Context, srv *pgembed.Server, err error) error {
	if sdErr := srv.Shutdown(ctx); sdErr != nil {
		slog.Warn("shutdown after failed startup", "error", sdErr)
	}
	return err
}

func runRun(cmd *cobra.Command, args []string) error {
	auth, err := parseAuth(runAuth)
	if err != nil {
		return err
	}

	port := runPort
	if port == 0 {
		if port, err = pgembed.FreePort(); err != nil {
			return err
		}
	}

	dataDir := runDataDir
	if dataDir == "" {
		scratch, err := os.MkdirTemp("", "pgembed-run-*")
		if err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		dataDir = filepath.Join(scratch, "data")
	}

	opts := []pgembed.Option{
		pgembed.WithDataDir(dataDir),
		pgembed.WithPort(port),
		pgembed.WithUser(runUser),
		pgembed.WithPassword(runPassword),
		pgembed.WithAuthMethod(auth),
		pgembed.WithPersistent(runPersistent),
		pgembed.WithTimeout(runTimeout),
		pgembed.WithVersion(pgembed.Version(runVersion)),
	}
	if runMigrations != "" {
		opts = append(opts, pgembed.WithMigrationDir(runMigrations))
	}
	if runCacheDir != "" {
		opts = append(opts, pgembed.WithCacheDir(runCacheDir))
	}

	srv, err := pgembed.New(opts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := srv.Setup(ctx); err != nil {
		return shutdownAfter(ctx, srv, err)
	}
	if err := srv.Start(ctx); err != nil {
		return shutdownAfter(ctx, srv, err)
	}
	if runMigrations != "" {
		if err := srv.Migrate(""); err != nil {
			return shutdownAfter(ctx, srv, err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), srv.ConnectionURI())
	slog.Info("server running", "data_dir", srv.DataDir(), "port", port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String())

	return srv.Shutdown(ctx)
}
