package pgembed_test

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/pgembed/pgembed"
)

// panicTestCase defines a test case for option validation panic tests.
type panicTestCase struct {
	name     string
	panics   bool
	panicMsg string
	fn       func()
}

// requirePanics calls fn and verifies it panics (or not) with the expected message.
func requirePanics(t *testing.T, shouldPanic bool, wantMsg string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if shouldPanic && r == nil {
			t.Fatal("expected panic but didn't get one")
		}
		if !shouldPanic && r != nil {
			t.Fatalf("unexpected panic: %v", r)
		}
		if shouldPanic && r != nil {
			msg := fmt.Sprint(r)
			if msg != wantMsg {
				t.Fatalf("expected panic message %q, got %q", wantMsg, msg)
			}
		}
	}()
	fn()
}

// runPanicTests runs a slice of panic test cases using requirePanics.
func runPanicTests(t *testing.T, tests []panicTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			requirePanics(t, tt.panics, tt.panicMsg, tt.fn)
		})
	}
}

func TestWithDataDirPanicsOnEmpty(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "empty",
			panics:   true,
			panicMsg: "pgembed: data directory must not be empty",
			fn:       func() { pgembed.WithDataDir("") },
		},
		{name: "valid", fn: func() { pgembed.WithDataDir("/tmp/pg/data") }},
	})
}

func TestWithPortPanicsOnInvalid(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "zero",
			panics:   true,
			panicMsg: "pgembed: port must be in range 1-65535, got 0",
			fn:       func() { pgembed.WithPort(0) },
		},
		{
			name:     "negative",
			panics:   true,
			panicMsg: "pgembed: port must be in range 1-65535, got -1",
			fn:       func() { pgembed.WithPort(-1) },
		},
		{
			name:     "too large",
			panics:   true,
			panicMsg: "pgembed: port must be in range 1-65535, got 70000",
			fn:       func() { pgembed.WithPort(70000) },
		},
		{name: "valid", fn: func() { pgembed.WithPort(5433) }},
	})
}

func TestWithTimeoutPanicsOnInvalid(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "zero",
			panics:   true,
			panicMsg: "pgembed: command timeout must be greater than 0, got 0s",
			fn:       func() { pgembed.WithTimeout(0) },
		},
		{
			name:     "negative",
			panics:   true,
			panicMsg: "pgembed: command timeout must be greater than 0, got -1s",
			fn:       func() { pgembed.WithTimeout(-1 * time.Second) },
		},
		{name: "valid", fn: func() { pgembed.WithTimeout(time.Second) }},
	})
}

func TestWithAuthMethodPanicsOnUnknown(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "unknown",
			panics:   true,
			panicMsg: "pgembed: unknown authentication method 42",
			fn:       func() { pgembed.WithAuthMethod(pgembed.AuthMethod(42)) },
		},
		{name: "valid", fn: func() { pgembed.WithAuthMethod(pgembed.AuthScramSHA256) }},
	})
}

func TestWithOSPanicsOnUnrecognized(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "unrecognized",
			panics:   true,
			panicMsg: `pgembed: unrecognized operating system "plan9"`,
			fn:       func() { pgembed.WithOS(pgembed.OS("plan9")) },
		},
		{name: "valid", fn: func() { pgembed.WithOS(pgembed.OSAlpineLinux) }},
	})
}

func TestWithArchPanicsOnUnrecognized(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "unrecognized",
			panics:   true,
			panicMsg: `pgembed: unrecognized architecture "sparc"`,
			fn:       func() { pgembed.WithArch(pgembed.Arch("sparc")) },
		},
		{name: "valid", fn: func() { pgembed.WithArch(pgembed.ArchARM64) }},
	})
}

func TestNilDependencyOptionsPanic(t *testing.T) {
	t.Parallel()
	runPanicTests(t, []panicTestCase{
		{
			name:     "nil registry",
			panics:   true,
			panicMsg: "pgembed: registry must not be nil",
			fn:       func() { pgembed.WithRegistry(nil) },
		},
		{
			name:     "nil logger",
			panics:   true,
			panicMsg: "pgembed: logger must not be nil",
			fn:       func() { pgembed.WithLogger(nil) },
		},
		{
			name:     "nil fetcher",
			panics:   true,
			panicMsg: "pgembed: fetcher must not be nil",
			fn:       func() { pgembed.WithFetcher(nil) },
		},
		{
			name:     "nil unpacker",
			panics:   true,
			panicMsg: "pgembed: unpacker must not be nil",
			fn:       func() { pgembed.WithUnpacker(nil) },
		},
	})
}

func TestOptionsMutateConfig(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := pgembed.NewRegistry()

	snap := pgembed.ApplyOptionsForTesting(
		pgembed.WithDataDir("/tmp/custom/db"),
		pgembed.WithPort(5433),
		pgembed.WithUser("alice"),
		pgembed.WithPassword("secret"),
		pgembed.WithAuthMethod(pgembed.AuthScramSHA256),
		pgembed.WithPersistent(true),
		pgembed.WithTimeout(42*time.Second),
		pgembed.WithMigrationDir("/tmp/migrations"),
		pgembed.WithVersion(pgembed.V11),
		pgembed.WithOS(pgembed.OSAlpineLinux),
		pgembed.WithArch(pgembed.ArchARM64),
		pgembed.WithFetchHost("https://mirror.example.com"),
		pgembed.WithCacheDir("/tmp/custom/cache"),
		pgembed.WithRegistry(reg),
		pgembed.WithLogger(log),
	)

	if snap.DataDir != "/tmp/custom/db" {
		t.Errorf("DataDir = %q", snap.DataDir)
	}
	if snap.Port != 5433 {
		t.Errorf("Port = %d", snap.Port)
	}
	if snap.User != "alice" || snap.Password != "secret" {
		t.Errorf("credentials = %q/%q", snap.User, snap.Password)
	}
	if snap.Auth != pgembed.AuthScramSHA256 {
		t.Errorf("Auth = %v", snap.Auth)
	}
	if !snap.Persistent {
		t.Error("Persistent not set")
	}
	if snap.CommandTimeout != 42*time.Second {
		t.Errorf("CommandTimeout = %v", snap.CommandTimeout)
	}
	if snap.MigrationDir != "/tmp/migrations" {
		t.Errorf("MigrationDir = %q", snap.MigrationDir)
	}
	if snap.FetchVersion != pgembed.V11 || snap.FetchOS != pgembed.OSAlpineLinux || snap.FetchArch != pgembed.ArchARM64 {
		t.Errorf("fetch spec = %v/%v/%v", snap.FetchOS, snap.FetchArch, snap.FetchVersion)
	}
	if snap.FetchHost != "https://mirror.example.com" {
		t.Errorf("FetchHost = %q", snap.FetchHost)
	}
	if snap.CacheDir != "/tmp/custom/cache" {
		t.Errorf("CacheDir = %q", snap.CacheDir)
	}
	if snap.Registry != reg {
		t.Error("Registry not set")
	}
	if snap.Logger != log {
		t.Error("Logger not set")
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	snap := pgembed.ApplyOptionsForTesting()

	if snap.Port != pgembed.DefaultPort {
		t.Errorf("default port = %d, want %d", snap.Port, pgembed.DefaultPort)
	}
	if snap.User != pgembed.DefaultUser {
		t.Errorf("default user = %q, want %q", snap.User, pgembed.DefaultUser)
	}
	if snap.Auth != pgembed.DefaultAuthMethod {
		t.Errorf("default auth = %v, want %v", snap.Auth, pgembed.DefaultAuthMethod)
	}
	if snap.CommandTimeout != pgembed.DefaultTimeout {
		t.Errorf("default timeout = %v, want %v", snap.CommandTimeout, pgembed.DefaultTimeout)
	}
	if snap.FetchHost != pgembed.DefaultFetchHost {
		t.Errorf("default fetch host = %q, want %q", snap.FetchHost, pgembed.DefaultFetchHost)
	}
	if snap.FetchVersion != pgembed.DefaultVersion {
		t.Errorf("default version = %q, want %q", snap.FetchVersion, pgembed.DefaultVersion)
	}
	if snap.DataDir == "" {
		t.Error("default data dir is empty")
	}
	if snap.MigrationDir != "" {
		t.Errorf("default migration dir = %q, want none", snap.MigrationDir)
	}
	if snap.Persistent {
		t.Error("instances should default to non-persistent")
	}
}
