package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgembed/pgembed/internal/fileutil"
	"github.com/pgembed/pgembed/internal/sentinel"
)

// ErrDirCreation is returned when the cache or data directory cannot be created.
const ErrDirCreation = sentinel.Error("directory creation failed")

// ErrCacheRootUnavailable is returned when no platform cache root exists and
// no explicit cache directory was supplied.
const ErrCacheRootUnavailable = sentinel.Error("platform cache root unavailable")

// namespaceDirName is the directory under the platform cache root that holds
// every version of the cached server binaries. Purge removes this directory
// wholesale. The name is shared with other pg-embed implementations so that
// existing caches interoperate.
const namespaceDirName = "pg-embed"

// versionFileName is the marker file PostgreSQL writes into an initialized
// data directory. Its existence (not its content) signals that initdb has run.
const versionFileName = "PG_VERSION"

// archiveSuffix is the extension of the persisted binaries archive.
const archiveSuffix = ".zip"

// lockFileName is the cross-process acquisition lock file inside a cache
// directory.
const lockFileName = ".acquire.lock"

// Location identifies a unique cache directory. OSDir is the operating system
// identifier as used in the cache layout ("darwin", "linux", "windows", or
// "arch_linux" for musl-based Linux); Platform is the artifact platform string
// used in the archive file name (for example "linux-amd64").
type Location struct {
	OSDir    string
	Arch     string
	Version  string
	Platform string
}

// validate reports the first missing Location field.
func (l Location) validate() error {
	switch {
	case l.OSDir == "":
		return fmt.Errorf("location OS dir must not be empty")
	case l.Arch == "":
		return fmt.Errorf("location architecture must not be empty")
	case l.Version == "":
		return fmt.Errorf("location version must not be empty")
	case l.Platform == "":
		return fmt.Errorf("location platform must not be empty")
	}
	return nil
}

// Paths is the set of resolved filesystem paths for one embedded server
// instance: the binaries cache directory, the database data directory, and
// the files derived from them. Paths is immutable after Resolve.
type Paths struct {
	// CacheDir holds the unpacked server binaries for one
	// (OS, architecture, version) triple.
	CacheDir string

	// DataDir is the PostgreSQL data directory for this instance.
	DataDir string

	// PgCtl is the server-control executable inside CacheDir.
	PgCtl string

	// InitDB is the initialize-database executable inside CacheDir.
	InitDB string

	// Archive is where the downloaded binaries archive is persisted.
	Archive string

	// Password is the credentials file fed to initdb via --pwfile. It sits
	// next to the data directory with the extension replaced by ".pwfile".
	Password string

	// VersionFile is the PG_VERSION marker inside DataDir.
	VersionFile string
}

// LockPath returns the path of the cross-process acquisition lock file for
// this cache directory.
func (p Paths) LockPath() string {
	return filepath.Join(p.CacheDir, lockFileName)
}

// Key returns the registry key for this cache location. The cache directory
// path is the key: it is deterministic per (OS, arch, version) triple and
// collision-free across versions and platforms.
func (p Paths) Key() string {
	return p.CacheDir
}

// Resolve computes the Paths for the given location and data directory and
// creates both directories (idempotently). If explicitCacheDir is non-empty
// it is used verbatim as the cache directory; otherwise the platform cache
// root is located via os.UserCacheDir and the deterministic subpath
// <root>/pg-embed/<os>/<arch>/<version> is used.
//
// Returns ErrCacheRootUnavailable if no platform cache root exists, or
// ErrDirCreation if either directory cannot be created.
func Resolve(loc Location, dataDir, explicitCacheDir string) (Paths, error) {
	if err := loc.validate(); err != nil {
		return Paths{}, err
	}
	if dataDir == "" {
		return Paths{}, fmt.Errorf("data directory must not be empty")
	}

	cacheDir := explicitCacheDir
	if cacheDir == "" {
		root, err := os.UserCacheDir()
		if err != nil {
			return Paths{}, fmt.Errorf("%w: %w", ErrCacheRootUnavailable, err)
		}
		cacheDir = filepath.Join(root, namespaceDirName, loc.OSDir, loc.Arch, loc.Version)
	}

	if err := fileutil.EnsureDir(cacheDir); err != nil {
		return Paths{}, fmt.Errorf("%w: cache dir: %w", ErrDirCreation, err)
	}
	if err := fileutil.EnsureDir(dataDir); err != nil {
		return Paths{}, fmt.Errorf("%w: data dir: %w", ErrDirCreation, err)
	}

	return Paths{
		CacheDir:    cacheDir,
		DataDir:     dataDir,
		PgCtl:       filepath.Join(cacheDir, "bin", "pg_ctl"),
		InitDB:      filepath.Join(cacheDir, "bin", "initdb"),
		Archive:     filepath.Join(cacheDir, loc.Platform+"-"+loc.Version+archiveSuffix),
		Password:    passwordFilePath(dataDir),
		VersionFile: filepath.Join(dataDir, versionFileName),
	}, nil
}

// passwordFilePath derives the credentials file path from the data directory:
// the directory path with any extension replaced by ".pwfile". A data
// directory of /tmp/db yields /tmp/db.pwfile; /tmp/db.data also yields
// /tmp/db.pwfile.
func passwordFilePath(dataDir string) string {
	trimmed := strings.TrimSuffix(dataDir, filepath.Ext(dataDir))
	return trimmed + ".pwfile"
}

// NamespaceRoot returns the cache namespace root directory holding every
// cached version and platform, or an error if the platform has no cache root.
func NamespaceRoot() (string, error) {
	root, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCacheRootUnavailable, err)
	}
	return filepath.Join(root, namespaceDirName), nil
}
