package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgembed/pgembed"
	"github.com/pgembed/pgembed/internal/fetch"
	"github.com/pgembed/pgembed/internal/server"
)

var (
	fetchVersion  string
	fetchOS       string
	fetchArch     string
	fetchHost     string
	fetchCacheDir string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download server binaries into the cache",
	Long: `Download and unpack the PostgreSQL server binaries for a version and
platform into the per-user cache, so a later run (or another program
using the cache) starts without a network round trip.

Examples:
  # Prefetch the default version for this platform
  pgembed fetch

  # Prefetch a specific version for Alpine Linux
  pgembed fetch --version 12.6.0 --os alpine-linux`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchVersion, "version", string(pgembed.DefaultVersion), "Server version to download")
	fetchCmd.Flags().StringVar(&fetchOS, "os", string(fetch.HostOS()), "Target operating system (darwin|windows|linux|alpine-linux)")
	fetchCmd.Flags().StringVar(&fetchArch, "arch", string(fetch.HostArch()), "Target architecture (amd64|arm64v8|i386|ppc64le)")
	fetchCmd.Flags().StringVar(&fetchHost, "host", pgembed.DefaultFetchHost, "Maven repository serving the binaries")
	fetchCmd.Flags().StringVar(&fetchCacheDir, "cache-dir", "", "Cache directory override (default: per-user cache root)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	// The controller wants a data directory even though fetch never
	// initializes one; a scratch directory keeps it out of the way.
	scratch, err := os.MkdirTemp("", "pgembed-fetch-*")
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	ctrl, err := server.New(server.Config{
		DataDir:        filepath.Join(scratch, "data"),
		Port:           pgembed.DefaultPort,
		User:           pgembed.DefaultUser,
		Password:       pgembed.DefaultPassword,
		CommandTimeout: time.Minute,
		Fetch: fetch.Spec{
			Host:    fetchHost,
			OS:      fetch.OS(fetchOS),
			Arch:    fetch.Arch(fetchArch),
			Version: fetch.Version(fetchVersion),
		},
		CacheDir: fetchCacheDir,
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}

	if err := ctrl.AcquireBinaries(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ctrl.Paths().CacheDir)
	return nil
}
