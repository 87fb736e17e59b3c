package pgembed

import (
	"github.com/pgembed/pgembed/internal/cache"
	"github.com/pgembed/pgembed/internal/sentinel"
	"github.com/pgembed/pgembed/internal/supervise"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrDirCreation is returned when the cache or data directory cannot be
	// created.
	ErrDirCreation = cache.ErrDirCreation

	// ErrCacheRootUnavailable is returned when the platform has no per-user
	// cache root and no explicit cache directory was configured.
	ErrCacheRootUnavailable = cache.ErrCacheRootUnavailable

	// ErrWriteFile is returned when persisting the binaries archive or the
	// credentials file fails.
	ErrWriteFile = cache.ErrWriteFile

	// ErrCleanUp is returned by Shutdown when removing a non-persistent
	// instance's data directory or credentials file fails.
	ErrCleanUp = cache.ErrCleanUp

	// ErrPurge is returned by Purge when the cache root cannot be located.
	ErrPurge = cache.ErrPurge

	// ErrSpawn is returned when an external command cannot be started at all
	// (missing or non-executable binary).
	ErrSpawn = supervise.ErrSpawn

	// ErrExitFailure is returned when an external command exits with a
	// non-zero status. The error message carries the command and exit code.
	ErrExitFailure = supervise.ErrExitFailure

	// ErrTimeout is returned when an external command exceeds the configured
	// command timeout. The child process is terminated.
	ErrTimeout = supervise.ErrTimeout

	// ErrReadFile is returned when reading an external command's output
	// stream fails.
	ErrReadFile = supervise.ErrReadFile

	// ErrAlreadyShutdown is returned by lifecycle methods called after
	// Shutdown. A shut-down Server cannot be revived; construct a new one.
	ErrAlreadyShutdown = sentinel.Error("server already shut down")
)
