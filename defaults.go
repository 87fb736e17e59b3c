package pgembed

import "time"

// Default configuration values for New.
// These constants are exported so callers can reference the defaults
// when building custom configurations relative to them (e.g.,
// 2 * DefaultTimeout).
const (
	// DefaultPort is the TCP port the server listens on, PostgreSQL's
	// conventional port. Tests running servers in parallel should pick a
	// unique port per instance via FreePort.
	DefaultPort = 5432

	// DefaultUser is the database superuser created by initdb.
	DefaultUser = "postgres"

	// DefaultPassword is the superuser password. Embedded instances are
	// loopback-only throwaway databases; override it for anything else.
	DefaultPassword = "password"

	// DefaultAuthMethod is plain-text password authentication, the most
	// compatible method across supported server versions.
	DefaultAuthMethod = AuthPlain

	// DefaultTimeout bounds each external command (initdb, pg_ctl start,
	// pg_ctl stop). Starting a freshly initialized cluster typically takes
	// single-digit seconds.
	DefaultTimeout = 15 * time.Second

	// DefaultFetchHost is the Maven repository serving the prebuilt server
	// binaries artifacts.
	DefaultFetchHost = "https://repo1.maven.org"

	// DefaultVersion is the server release downloaded when no version is
	// configured.
	DefaultVersion = V13

	// DefaultDataDirName is the directory name under the system temp
	// directory where instance data is stored when WithDataDir is not
	// given. The full path is computed as
	// filepath.Join(os.TempDir(), DefaultDataDirName, "data").
	DefaultDataDirName = "pgembed"
)
