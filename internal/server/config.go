package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgembed/pgembed/internal/cache"
	"github.com/pgembed/pgembed/internal/command"
	"github.com/pgembed/pgembed/internal/fetch"
)

// Fetcher downloads the binaries archive for a server release. The returned
// bytes are the raw archive exactly as served by the release host.
type Fetcher interface {
	Fetch(ctx context.Context, spec fetch.Spec) ([]byte, error)
}

// Unpacker extracts a downloaded archive into the cache directory so that
// bin/initdb and bin/pg_ctl become available underneath it.
type Unpacker interface {
	Unpack(archivePath, destDir string) error
}

// UnpackerFunc adapts a plain function to the Unpacker interface.
type UnpackerFunc func(archivePath, destDir string) error

// Unpack calls f.
func (f UnpackerFunc) Unpack(archivePath, destDir string) error {
	return f(archivePath, destDir)
}

// Config carries everything a Controller needs to manage one server instance.
// The zero value is not usable; New validates the configuration and rejects
// incomplete or inconsistent settings.
type Config struct {
	// DataDir is the PostgreSQL data directory for this instance.
	DataDir string

	// Port is the TCP port the server listens on.
	Port int

	// User and Password authenticate the database superuser created by initdb.
	User     string
	Password string

	// Auth selects the password authentication method written into the
	// cluster configuration by initdb.
	Auth command.AuthMethod

	// Persistent controls whether Shutdown keeps the data directory and
	// password file on disk. Non-persistent instances are cleaned up.
	Persistent bool

	// CommandTimeout bounds each external command (initdb, pg_ctl start,
	// pg_ctl stop). A command still running when the timeout expires is
	// terminated and the operation fails.
	CommandTimeout time.Duration

	// MigrationDir optionally points at a directory of SQL migration files
	// applied by Migrate. Empty means migrations are disabled.
	MigrationDir string

	// Fetch identifies the binaries release to download when the cache does
	// not already hold the executables.
	Fetch fetch.Spec

	// CacheDir overrides the default per-user binaries cache root. Empty
	// selects the platform default.
	CacheDir string

	// Registry coordinates binary acquisition across controllers sharing a
	// cache directory. Nil selects the process-wide default registry.
	Registry *cache.Registry

	// Fetcher and Unpacker override how archives are downloaded and
	// extracted. Nil selects the HTTP fetcher and the bundled zip/txz
	// unpacker.
	Fetcher  Fetcher
	Unpacker Unpacker

	// Logger receives lifecycle and subprocess output logs. Nil selects the
	// package logger.
	Logger *slog.Logger
}

// validate reports all configuration problems at once, joined into a single
// error.
func (c Config) validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data directory must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is outside the valid range 1-65535", c.Port))
	}
	if c.User == "" {
		errs = append(errs, errors.New("database user must not be empty"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("database password must not be empty"))
	}
	if !c.Auth.Valid() {
		errs = append(errs, fmt.Errorf("unknown authentication method %d", c.Auth))
	}
	if c.CommandTimeout <= 0 {
		errs = append(errs, errors.New("command timeout must be positive"))
	}
	if c.Fetch.Host == "" {
		errs = append(errs, errors.New("fetch host must not be empty"))
	}
	if !c.Fetch.OS.Valid() {
		errs = append(errs, fmt.Errorf("unrecognized operating system %q", c.Fetch.OS))
	}
	if !c.Fetch.Arch.Valid() {
		errs = append(errs, fmt.Errorf("unrecognized architecture %q", c.Fetch.Arch))
	}
	if c.Fetch.Version == "" {
		errs = append(errs, errors.New("server version must not be empty"))
	}
	if c.Auth == command.AuthScramSHA256 {
		if major := c.Fetch.Version.Major(); major < command.ScramMinMajorVersion {
			errs = append(errs, fmt.Errorf(
				"scram-sha-256 authentication requires PostgreSQL %d or newer, got version %s",
				command.ScramMinMajorVersion, c.Fetch.Version))
		}
	}
	return errors.Join(errs...)
}
