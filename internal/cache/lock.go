package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
)

// fileLockRetryInterval is the interval between consecutive attempts to
// acquire the acquisition file lock. 50ms balances responsiveness (low wait
// after the holder releases) against CPU overhead from busy-polling.
const fileLockRetryInterval = 50 * time.Millisecond

// AcquireFileLock acquires an exclusive lock on the given file path. The
// in-process Registry only coordinates instances within one process; the file
// lock extends download mutual exclusion to separate processes sharing the
// same cache root. It respects context cancellation and retries at
// fileLockRetryInterval until successful or the context is done.
func AcquireFileLock(ctx context.Context, lockPath string) (*flock.Flock, error) {
	fl := flock.New(lockPath)

	locked, err := fl.TryLockContext(ctx, fileLockRetryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquiring file lock %s: %w", lockPath, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquiring file lock %s: %w", lockPath, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring file lock %s: lock not acquired", lockPath)
	}

	return fl, nil
}

// ReleaseFileLock releases the file lock and closes the file descriptor.
// The lock file is intentionally left on disk: removing it could invalidate
// a lock concurrently acquired by another process. Errors are logged at
// debug level; this is best-effort cleanup.
func ReleaseFileLock(logger *slog.Logger, fl *flock.Flock) {
	if logger == nil {
		logger = slog.Default()
	}
	if fl != nil {
		if err := fl.Close(); err != nil {
			logger.Debug("failed to release file lock", "path", fl.Path(), "err", err)
		}
	}
}
