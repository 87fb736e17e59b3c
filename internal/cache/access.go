package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/google/renameio/v2"

	"github.com/pgembed/pgembed/internal/fileutil"
	"github.com/pgembed/pgembed/internal/sentinel"
)

// ErrWriteFile is returned when persisting the archive or credentials file fails.
const ErrWriteFile = sentinel.Error("writing file failed")

// ErrCleanUp is returned when removing instance files fails.
const ErrCleanUp = sentinel.Error("instance cleanup failed")

// ErrPurge is returned when the cache namespace root cannot be located for purging.
const ErrPurge = sentinel.Error("cache purge failed")

// Access mediates all filesystem and registry interaction for one resolved
// cache location. It is owned by a single controller; the embedded Registry
// is the shared coordination point across controllers.
type Access struct {
	paths Paths
	reg   *Registry
	log   *slog.Logger
}

// NewAccess creates an Access for the given resolved paths. If reg is nil the
// process-wide default registry is used; if logger is nil, slog.Default().
func NewAccess(paths Paths, reg *Registry, logger *slog.Logger) *Access {
	if reg == nil {
		reg = Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Access{paths: paths, reg: reg, log: logger}
}

// Paths returns the resolved paths this Access operates on.
func (a *Access) Paths() Paths {
	return a.paths
}

// ExecutablesCached reports whether the server executables are already
// present in the cache. The probe opens the initialize-database executable;
// any open failure means "not cached" and is never surfaced as an error.
func (a *Access) ExecutablesCached() bool {
	return fileutil.PathExists(a.paths.InitDB)
}

// DBFilesExist reports whether the data directory holds an initialized
// database, probed via the PG_VERSION marker file. Only existence is
// checked, never content.
func (a *Access) DBFilesExist() bool {
	return fileutil.PathExists(a.paths.VersionFile)
}

// AcquisitionNeeded reports whether the caller must download and unpack the
// server binaries. It returns false immediately when the executables are
// already cached or a previous acquisition finished. When another instance
// holds the acquisition in progress, it blocks (polling at PollInterval)
// until that acquisition leaves the in-progress state, then returns false.
// Only when the status is undefined does it return true; the claim of the
// in-progress slot is atomic, so exactly one caller per cache location gets
// true and becomes responsible for acquiring and marking the status
// finished (or resetting it on failure).
func (a *Access) AcquisitionNeeded(ctx context.Context) (bool, error) {
	if a.ExecutablesCached() {
		return false, nil
	}
	status, claimed := a.reg.Begin(a.paths.Key())
	if claimed {
		return true, nil
	}
	if status == StatusInProgress {
		if _, err := a.reg.WaitWhileInProgress(ctx, a.paths.Key()); err != nil {
			return false, err
		}
	}
	return false, nil
}

// MarkInProgress records this instance as the acquirer for the cache location.
func (a *Access) MarkInProgress() {
	a.reg.MarkInProgress(a.paths.Key())
}

// MarkFinished records the acquisition as complete, releasing any waiters.
func (a *Access) MarkFinished() {
	a.reg.MarkFinished(a.paths.Key())
}

// ResetAcquisition rolls the acquisition status back to undefined after a
// failed acquisition so waiters and later callers can retry.
func (a *Access) ResetAcquisition() {
	a.reg.Reset(a.paths.Key())
}

// WriteArchive persists the downloaded binaries archive to the resolved
// archive path. The write is atomic (temp file then rename) so a concurrent
// reader never observes a partial archive.
func (a *Access) WriteArchive(data []byte) error {
	if err := renameio.WriteFile(a.paths.Archive, data, 0o644); err != nil {
		return fmt.Errorf("%w: archive %s: %w", ErrWriteFile, a.paths.Archive, err)
	}
	return nil
}

// WriteCredentials writes the password bytes to the resolved credentials
// file, which initdb consumes via --pwfile. Mode 0600: the file holds a
// secret.
func (a *Access) WriteCredentials(secret []byte) error {
	if err := renameio.WriteFile(a.paths.Password, secret, 0o600); err != nil {
		return fmt.Errorf("%w: credentials %s: %w", ErrWriteFile, a.paths.Password, err)
	}
	return nil
}

// CleanupInstance removes the data directory tree and the credentials file
// of a non-persistent instance. The removal short-circuits: if the data
// directory cannot be removed, the credentials file is left untouched.
// A credentials file that is already gone is not an error.
func (a *Access) CleanupInstance() error {
	if err := os.RemoveAll(a.paths.DataDir); err != nil {
		return fmt.Errorf("%w: data dir %s: %w", ErrCleanUp, a.paths.DataDir, err)
	}
	if err := os.Remove(a.paths.Password); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: credentials %s: %w", ErrCleanUp, a.paths.Password, err)
	}
	return nil
}

// PurgeAll removes the entire cache namespace root, affecting every version
// and platform ever cached on this host. Removal failures are swallowed
// (logged at warn level) since purge is typically invoked outside any active
// session; only a missing platform cache root is reported, wrapped in
// ErrPurge.
func PurgeAll(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := NamespaceRoot()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPurge, err)
	}
	if err := os.RemoveAll(root); err != nil {
		logger.Warn("purge of cached server binaries failed", "path", root, "error", err)
	}
	return nil
}
