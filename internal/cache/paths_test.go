package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pgembed/pgembed/internal/cache"
)

func testLocation() cache.Location {
	return cache.Location{
		OSDir:    "linux",
		Arch:     "amd64",
		Version:  "13.2.0",
		Platform: "linux-amd64",
	}
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	cacheDir := filepath.Join(base, "cache")

	first, err := cache.Resolve(testLocation(), dataDir, cacheDir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	second, err := cache.Resolve(testLocation(), dataDir, cacheDir)
	if err != nil {
		t.Fatalf("Resolve (second call): %v", err)
	}
	if first != second {
		t.Fatalf("Resolve not deterministic:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestResolvePaths(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	cacheDir := filepath.Join(base, "cache")

	p, err := cache.Resolve(testLocation(), dataDir, cacheDir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	tests := map[string]struct {
		got  string
		want string
	}{
		"cache dir used verbatim": {p.CacheDir, cacheDir},
		"pg_ctl under bin":        {p.PgCtl, filepath.Join(cacheDir, "bin", "pg_ctl")},
		"initdb under bin":        {p.InitDB, filepath.Join(cacheDir, "bin", "initdb")},
		"archive name":            {p.Archive, filepath.Join(cacheDir, "linux-amd64-13.2.0.zip")},
		"credentials file":        {p.Password, filepath.Join(base, "data.pwfile")},
		"version marker":          {p.VersionFile, filepath.Join(dataDir, "PG_VERSION")},
	}
	for name, tc := range tests {
		if tc.got != tc.want {
			t.Errorf("%s: got %q, want %q", name, tc.got, tc.want)
		}
	}

	// Both directories must exist after Resolve.
	for _, dir := range []string{p.CacheDir, p.DataDir} {
		info, statErr := os.Stat(dir)
		if statErr != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", dir, statErr)
		}
	}
}

func TestResolveReplacesDataDirExtension(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	dataDir := filepath.Join(base, "db.data")

	p, err := cache.Resolve(testLocation(), dataDir, filepath.Join(base, "cache"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if want := filepath.Join(base, "db.pwfile"); p.Password != want {
		t.Fatalf("Password = %q, want %q", p.Password, want)
	}
}

func TestResolveDefaultCacheLayout(t *testing.T) {
	// Not parallel: mutates the cache-root environment variable.
	root := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", root)

	p, err := cache.Resolve(testLocation(), filepath.Join(t.TempDir(), "data"), "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(root, "pg-embed", "linux", "amd64", "13.2.0")
	if p.CacheDir != want {
		t.Fatalf("CacheDir = %q, want %q", p.CacheDir, want)
	}
}

func TestResolveValidation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		loc     cache.Location
		dataDir string
	}{
		"missing OS dir":  {cache.Location{Arch: "amd64", Version: "13.2.0", Platform: "p"}, "d"},
		"missing arch":    {cache.Location{OSDir: "linux", Version: "13.2.0", Platform: "p"}, "d"},
		"missing version": {cache.Location{OSDir: "linux", Arch: "amd64", Platform: "p"}, "d"},
		"missing data dir": {
			cache.Location{OSDir: "linux", Arch: "amd64", Version: "13.2.0", Platform: "p"}, "",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := cache.Resolve(tc.loc, tc.dataDir, t.TempDir()); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestResolveDirCreationError(t *testing.T) {
	t.Parallel()

	// A cache dir nested under an existing regular file cannot be created.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	_, err := cache.Resolve(testLocation(), filepath.Join(base, "data"), filepath.Join(blocker, "cache"))
	if !errors.Is(err, cache.ErrDirCreation) {
		t.Fatalf("expected ErrDirCreation, got %v", err)
	}
}
