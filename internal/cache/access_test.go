package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pgembed/pgembed/internal/cache"
)

func newTestAccess(t *testing.T) *cache.Access {
	t.Helper()
	base := t.TempDir()
	paths, err := cache.Resolve(testLocation(), filepath.Join(base, "data"), filepath.Join(base, "cache"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return cache.NewAccess(paths, cache.NewRegistry(), nil)
}

// placeStubExecutables creates empty pg_ctl and initdb files at the resolved
// paths, simulating a completed unpack.
func placeStubExecutables(t *testing.T, paths cache.Paths) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(paths.InitDB), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	for _, exe := range []string{paths.InitDB, paths.PgCtl} {
		if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatalf("write stub executable: %v", err)
		}
	}
}

func TestExecutablesCached(t *testing.T) {
	t.Parallel()

	access := newTestAccess(t)
	if access.ExecutablesCached() {
		t.Fatal("ExecutablesCached = true before any unpack")
	}

	placeStubExecutables(t, access.Paths())
	if !access.ExecutablesCached() {
		t.Fatal("ExecutablesCached = false after executables placed")
	}
}

func TestDBFilesExist(t *testing.T) {
	t.Parallel()

	access := newTestAccess(t)
	if access.DBFilesExist() {
		t.Fatal("DBFilesExist = true for an uninitialized data directory")
	}

	if err := os.WriteFile(access.Paths().VersionFile, []byte("13\n"), 0o644); err != nil {
		t.Fatalf("write PG_VERSION: %v", err)
	}
	if !access.DBFilesExist() {
		t.Fatal("DBFilesExist = false after PG_VERSION created")
	}
}

func TestAcquisitionNeededSkipsWhenCached(t *testing.T) {
	t.Parallel()

	access := newTestAccess(t)
	placeStubExecutables(t, access.Paths())

	needed, err := access.AcquisitionNeeded(context.Background())
	if err != nil {
		t.Fatalf("AcquisitionNeeded: %v", err)
	}
	if needed {
		t.Fatal("AcquisitionNeeded = true with executables already cached")
	}
}

func TestAcquisitionNeededClaimsOnce(t *testing.T) {
	t.Parallel()

	access := newTestAccess(t)

	needed, err := access.AcquisitionNeeded(context.Background())
	if err != nil {
		t.Fatalf("AcquisitionNeeded: %v", err)
	}
	if !needed {
		t.Fatal("first caller should be told to acquire")
	}

	// The same access now owns the in-progress slot; a second caller with a
	// bounded context must wait, then fail on the context since nobody
	// finishes the acquisition.
	ctx, cancel := context.WithTimeout(context.Background(), 3*cache.PollInterval)
	defer cancel()
	if _, err := access.AcquisitionNeeded(ctx); err == nil {
		t.Fatal("expected context error for waiter while acquisition never finishes")
	}

	// After the acquirer marks finished, callers observe no acquisition needed.
	access.MarkFinished()
	needed, err = access.AcquisitionNeeded(context.Background())
	if err != nil {
		t.Fatalf("AcquisitionNeeded after finish: %v", err)
	}
	if needed {
		t.Fatal("AcquisitionNeeded = true after acquisition finished")
	}
}

func TestResetAcquisitionUnblocksRetry(t *testing.T) {
	t.Parallel()

	access := newTestAccess(t)

	needed, err := access.AcquisitionNeeded(context.Background())
	if err != nil || !needed {
		t.Fatalf("first AcquisitionNeeded = (%v, %v), want (true, nil)", needed, err)
	}

	access.ResetAcquisition()

	needed, err = access.AcquisitionNeeded(context.Background())
	if err != nil {
		t.Fatalf("AcquisitionNeeded after reset: %v", err)
	}
	if !needed {
		t.Fatal("acquisition should be claimable again after a reset")
	}
}

func TestWriteArchiveAndCredentials(t *testing.T) {
	t.Parallel()

	access := newTestAccess(t)
	paths := access.Paths()

	if err := access.WriteArchive([]byte("zip-bytes")); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	got, err := os.ReadFile(paths.Archive)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if string(got) != "zip-bytes" {
		t.Fatalf("archive content = %q", got)
	}

	if err := access.WriteCredentials([]byte("s3cret")); err != nil {
		t.Fatalf("WriteCredentials: %v", err)
	}
	got, err = os.ReadFile(paths.Password)
	if err != nil {
		t.Fatalf("read credentials: %v", err)
	}
	if string(got) != "s3cret" {
		t.Fatalf("credentials content = %q", got)
	}
	info, err := os.Stat(paths.Password)
	if err != nil {
		t.Fatalf("stat credentials: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Fatalf("credentials mode = %o, want 600", mode)
	}
}

func TestCleanupInstance(t *testing.T) {
	t.Parallel()

	access := newTestAccess(t)
	paths := access.Paths()

	if err := os.WriteFile(filepath.Join(paths.DataDir, "base"), []byte("x"), 0o644); err != nil {
		t.Fatalf("populate data dir: %v", err)
	}
	if err := access.WriteCredentials([]byte("pw")); err != nil {
		t.Fatalf("WriteCredentials: %v", err)
	}

	if err := access.CleanupInstance(); err != nil {
		t.Fatalf("CleanupInstance: %v", err)
	}
	if _, err := os.Stat(paths.DataDir); !os.IsNotExist(err) {
		t.Error("data directory still present after cleanup")
	}
	if _, err := os.Stat(paths.Password); !os.IsNotExist(err) {
		t.Error("credentials file still present after cleanup")
	}

	// Cleanup of an already-clean instance is not an error.
	if err := access.CleanupInstance(); err != nil {
		t.Fatalf("second CleanupInstance: %v", err)
	}
}

func TestFileLockMutualExclusion(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "acquire.lock")

	fl, err := cache.AcquireFileLock(context.Background(), lockPath)
	if err != nil {
		t.Fatalf("AcquireFileLock: %v", err)
	}

	// A second acquisition attempt with a short deadline must time out while
	// the lock is held.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := cache.AcquireFileLock(ctx, lockPath); err == nil {
		t.Fatal("expected lock acquisition to fail while lock is held")
	}

	cache.ReleaseFileLock(nil, fl)
}
