package pgembed

import (
	"fmt"
	"log/slog"
	"time"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("pgembed: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("pgembed: %s must not be empty", name))
	}
}

// Option configures a Server during construction via New.
// Each With* function returns an Option that sets a specific field.
//
// Several With* functions panic on invalid input (empty paths, non-positive
// durations, out-of-range ports). These panics are intentional: option values
// are typically compile-time constants or package-level variables, so an
// invalid value indicates a programmer error rather than a runtime condition.
// The pattern mirrors [regexp.MustCompile] — fail fast during initialization
// instead of returning errors that would be universally fatal anyway.
type Option func(*serverConfig)

// WithDataDir sets the PostgreSQL data directory for this instance. The
// credentials file is placed next to it, with the extension replaced by
// ".pwfile". Parallel instances need distinct data directories.
//
// Default: <os.TempDir()>/pgembed/data.
//
// Panics if dir is empty.
func WithDataDir(dir string) Option {
	requireNonEmpty("data directory", dir)
	return func(c *serverConfig) {
		c.DataDir = dir
	}
}

// WithPort sets the TCP port the server listens on. Use FreePort to pick an
// unused port for parallel instances.
//
// Default: 5432.
//
// Panics if port is outside 1-65535.
func WithPort(port int) Option {
	if port <= 0 || port > 65535 {
		panic(fmt.Sprintf("pgembed: port must be in range 1-65535, got %d", port))
	}
	return func(c *serverConfig) {
		c.Port = port
	}
}

// WithUser sets the database superuser name created by initdb.
//
// Default: "postgres".
//
// Panics if user is empty.
func WithUser(user string) Option {
	requireNonEmpty("database user", user)
	return func(c *serverConfig) {
		c.User = user
	}
}

// WithPassword sets the superuser password. It is written to the credentials
// file (mode 0600) consumed by initdb.
//
// Default: "password".
//
// Panics if password is empty.
func WithPassword(password string) Option {
	requireNonEmpty("database password", password)
	return func(c *serverConfig) {
		c.Password = password
	}
}

// WithAuthMethod sets the password authentication method initdb configures
// for host connections. AuthScramSHA256 requires a server version of 11 or
// newer; New reports the conflict as an error.
//
// Default: AuthPlain.
//
// Panics if method is not a recognized AuthMethod.
func WithAuthMethod(method AuthMethod) Option {
	if !method.Valid() {
		panic(fmt.Sprintf("pgembed: unknown authentication method %d", method))
	}
	return func(c *serverConfig) {
		c.Auth = method
	}
}

// WithPersistent keeps the data directory and credentials file on disk
// across Shutdown. A later Setup against the same data directory skips
// initdb and reuses the existing cluster.
//
// Default: false (Shutdown removes both).
func WithPersistent(persistent bool) Option {
	return func(c *serverConfig) {
		c.Persistent = persistent
	}
}

// WithTimeout bounds each external command: initdb, pg_ctl start, and
// pg_ctl stop. A command still running when the timeout expires is
// terminated and the operation fails with ErrTimeout.
//
// Default: 15 seconds.
//
// Panics if d <= 0.
func WithTimeout(d time.Duration) Option {
	requirePositive("command timeout", d)
	return func(c *serverConfig) {
		c.CommandTimeout = d
	}
}

// WithMigrationDir sets a directory of SQL migration files applied by
// Server.Migrate. Files follow the golang-migrate naming convention
// (<version>_<title>.up.sql / .down.sql).
//
// Default: none; Migrate is a no-op.
//
// Panics if dir is empty.
func WithMigrationDir(dir string) Option {
	requireNonEmpty("migration directory", dir)
	return func(c *serverConfig) {
		c.MigrationDir = dir
	}
}

// WithVersion selects the PostgreSQL release to download and run. The V13
// through V9 constants name the known packaged releases; any version with a
// published binaries artifact works.
//
// Default: DefaultVersion.
//
// Panics if version is empty.
func WithVersion(version Version) Option {
	requireNonEmpty("server version", string(version))
	return func(c *serverConfig) {
		c.Fetch.Version = version
	}
}

// WithOS overrides the operating system the downloaded binaries target.
// Needed on musl-based (Alpine) Linux, which host detection cannot tell
// apart from glibc Linux.
//
// Default: the running platform.
//
// Panics if os is not a recognized OS.
func WithOS(os OS) Option {
	if !os.Valid() {
		panic(fmt.Sprintf("pgembed: unrecognized operating system %q", os))
	}
	return func(c *serverConfig) {
		c.Fetch.OS = os
	}
}

// WithArch overrides the CPU architecture the downloaded binaries target.
//
// Default: the running platform.
//
// Panics if arch is not a recognized Arch.
func WithArch(arch Arch) Option {
	if !arch.Valid() {
		panic(fmt.Sprintf("pgembed: unrecognized architecture %q", arch))
	}
	return func(c *serverConfig) {
		c.Fetch.Arch = arch
	}
}

// WithFetchHost sets the base URL of the Maven repository serving the
// binaries artifacts. Useful for corporate mirrors and for tests serving
// artifacts from a local HTTP server.
//
// Default: DefaultFetchHost.
//
// Panics if host is empty.
func WithFetchHost(host string) Option {
	requireNonEmpty("fetch host", host)
	return func(c *serverConfig) {
		c.Fetch.Host = host
	}
}

// WithCacheDir overrides the binaries cache directory. By default binaries
// cache under the per-user cache root at
// <cache-root>/pg-embed/<os>/<arch>/<version>, shared by every instance of
// the same platform and version.
//
// Panics if dir is empty.
func WithCacheDir(dir string) Option {
	requireNonEmpty("cache directory", dir)
	return func(c *serverConfig) {
		c.CacheDir = dir
	}
}

// WithRegistry sets the acquisition registry coordinating binaries downloads
// between Servers in this process. Servers sharing a cache directory must
// share a registry; the default process-wide registry satisfies this
// automatically. Tests substitute a fresh registry for isolation.
//
// Panics if reg is nil.
func WithRegistry(reg *Registry) Option {
	if reg == nil {
		panic("pgembed: registry must not be nil")
	}
	return func(c *serverConfig) {
		c.Registry = reg
	}
}

// WithLogger sets the logger for this Server's lifecycle and subprocess
// output logs, overriding the package logger configured via SetLogger.
//
// Panics if l is nil; use SetLogger(nil) to reset the package logger instead.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("pgembed: logger must not be nil")
	}
	return func(c *serverConfig) {
		c.Logger = l
	}
}

// WithFetcher overrides how the binaries archive is downloaded. Tests use
// this to serve canned archives without a network.
//
// Panics if f is nil.
func WithFetcher(f Fetcher) Option {
	if f == nil {
		panic("pgembed: fetcher must not be nil")
	}
	return func(c *serverConfig) {
		c.Fetcher = f
	}
}

// WithUnpacker overrides how a downloaded archive is extracted into the
// binaries cache.
//
// Panics if u is nil.
func WithUnpacker(u Unpacker) Option {
	if u == nil {
		panic("pgembed: unpacker must not be nil")
	}
	return func(c *serverConfig) {
		c.Unpacker = u
	}
}
