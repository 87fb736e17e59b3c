package pgembed

import (
	"github.com/pgembed/pgembed/internal/cache"
	"github.com/pgembed/pgembed/internal/command"
	"github.com/pgembed/pgembed/internal/fetch"
	"github.com/pgembed/pgembed/internal/server"
)

// Aliases re-export the internal types that appear in the public API, so
// callers never import internal packages.
type (
	// Status describes where a Server currently sits in its lifecycle.
	Status = server.Status

	// AuthMethod selects the password authentication method configured by
	// initdb.
	AuthMethod = command.AuthMethod

	// OS is the operating system a binaries artifact targets.
	OS = fetch.OS

	// Arch is the CPU architecture a binaries artifact targets.
	Arch = fetch.Arch

	// Version is a full PostgreSQL release version, e.g. "13.2.0".
	Version = fetch.Version

	// Fetcher downloads the binaries archive for a server release.
	Fetcher = server.Fetcher

	// Unpacker extracts a downloaded archive into the binaries cache.
	Unpacker = server.Unpacker

	// UnpackerFunc adapts a plain function to the Unpacker interface.
	UnpackerFunc = server.UnpackerFunc

	// Registry coordinates binaries acquisition between Servers sharing a
	// cache directory within one process.
	Registry = cache.Registry
)

// Lifecycle statuses reported by Server.Status.
const (
	StatusUninitialized = server.StatusUninitialized
	StatusInitializing  = server.StatusInitializing
	StatusInitialized   = server.StatusInitialized
	StatusStarting      = server.StatusStarting
	StatusStarted       = server.StatusStarted
	StatusStopping      = server.StatusStopping
	StatusStopped       = server.StatusStopped
	StatusFailure       = server.StatusFailure
)

// Supported authentication methods.
const (
	// AuthPlain uses plain-text password authentication.
	AuthPlain = command.AuthPlain
	// AuthMD5 uses md5 password authentication.
	AuthMD5 = command.AuthMD5
	// AuthScramSHA256 uses scram-sha-256 authentication. Requires a server
	// version of 11 or newer.
	AuthScramSHA256 = command.AuthScramSHA256
)

// Supported operating systems.
const (
	OSDarwin      = fetch.OSDarwin
	OSWindows     = fetch.OSWindows
	OSLinux       = fetch.OSLinux
	OSAlpineLinux = fetch.OSAlpineLinux
)

// Supported architectures.
const (
	ArchAMD64   = fetch.ArchAMD64
	ArchARM64   = fetch.ArchARM64
	ArchI386    = fetch.ArchI386
	ArchPPC64LE = fetch.ArchPPC64LE
)

// Known release versions of the packaged server binaries.
const (
	V13 = fetch.V13
	V12 = fetch.V12
	V11 = fetch.V11
	V10 = fetch.V10
	V9  = fetch.V9
)

// NewRegistry creates an empty acquisition registry. Servers constructed
// with WithRegistry(reg) coordinate among themselves instead of through the
// process-wide default registry; tests use this for isolation.
func NewRegistry() *Registry {
	return cache.NewRegistry()
}
