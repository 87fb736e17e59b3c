package fetch

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// OS is the operating system an artifact targets.
type OS string

const (
	// OSDarwin targets macOS.
	OSDarwin OS = "darwin"
	// OSWindows targets Windows.
	OSWindows OS = "windows"
	// OSLinux targets glibc-based Linux.
	OSLinux OS = "linux"
	// OSAlpineLinux targets musl-based (Alpine) Linux. Artifacts carry an
	// "-alpine" platform suffix and cache under an "arch_" prefixed OS
	// directory to keep musl and glibc binaries apart.
	OSAlpineLinux OS = "alpine-linux"
)

// id returns the operating system identifier used in artifact coordinates.
func (o OS) id() string {
	if o == OSAlpineLinux {
		return "linux"
	}
	return string(o)
}

// CacheDirName returns the operating system directory segment of the cache
// layout: the plain OS identifier, or "arch_" + identifier for musl Linux.
func (o OS) CacheDirName() string {
	if o == OSAlpineLinux {
		return "arch_" + o.id()
	}
	return o.id()
}

// Valid reports whether o is a recognized operating system.
func (o OS) Valid() bool {
	switch o {
	case OSDarwin, OSWindows, OSLinux, OSAlpineLinux:
		return true
	}
	return false
}

// Arch is the CPU architecture an artifact targets, in the naming used by
// the artifact repository.
type Arch string

const (
	// ArchAMD64 targets x86-64.
	ArchAMD64 Arch = "amd64"
	// ArchARM64 targets 64-bit ARM.
	ArchARM64 Arch = "arm64v8"
	// ArchI386 targets 32-bit x86.
	ArchI386 Arch = "i386"
	// ArchPPC64LE targets little-endian 64-bit PowerPC.
	ArchPPC64LE Arch = "ppc64le"
)

// Valid reports whether a is a recognized architecture.
func (a Arch) Valid() bool {
	switch a {
	case ArchAMD64, ArchARM64, ArchI386, ArchPPC64LE:
		return true
	}
	return false
}

// Version is a full PostgreSQL release version as used in artifact
// coordinates, e.g. "13.2.0".
type Version string

// Known release versions of the packaged server binaries.
const (
	V13 Version = "13.2.0"
	V12 Version = "12.6.0"
	V11 Version = "11.11.0"
	V10 Version = "10.16.0"
	V9  Version = "9.6.21"
)

// Major returns the leading major version number, or 0 if the version string
// does not start with a number.
func (v Version) Major() int {
	head, _, _ := strings.Cut(string(v), ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return major
}

// Spec identifies one downloadable binaries artifact.
type Spec struct {
	// Host is the base URL of the Maven repository serving the artifacts.
	Host string

	OS      OS
	Arch    Arch
	Version Version
}

// HostOS returns the OS matching the running platform. Musl detection is not
// attempted; callers on Alpine set OSAlpineLinux explicitly.
func HostOS() OS {
	switch runtime.GOOS {
	case "darwin":
		return OSDarwin
	case "windows":
		return OSWindows
	default:
		return OSLinux
	}
}

// HostArch returns the Arch matching the running platform.
func HostArch() Arch {
	switch runtime.GOARCH {
	case "arm64":
		return ArchARM64
	case "386":
		return ArchI386
	case "ppc64le":
		return ArchPPC64LE
	default:
		return ArchAMD64
	}
}

// Platform returns the artifact platform string, e.g. "linux-amd64" or
// "linux-amd64-alpine". It names both the published artifact and the
// persisted archive file.
func (s Spec) Platform() string {
	platform := s.OS.id() + "-" + string(s.Arch)
	if s.OS == OSAlpineLinux {
		platform += "-alpine"
	}
	return platform
}

// URL returns the full download URL of the artifact.
func (s Spec) URL() string {
	artifact := "embedded-postgres-binaries-" + s.Platform()
	return fmt.Sprintf("%s/maven2/io/zonky/test/postgres/%s/%s/%s-%s.jar",
		strings.TrimSuffix(s.Host, "/"), artifact, s.Version, artifact, s.Version)
}

// validate reports the first invalid Spec field.
func (s Spec) validate() error {
	switch {
	case s.Host == "":
		return fmt.Errorf("fetch host must not be empty")
	case !s.OS.Valid():
		return fmt.Errorf("unrecognized operating system %q", s.OS)
	case !s.Arch.Valid():
		return fmt.Errorf("unrecognized architecture %q", s.Arch)
	case s.Version == "":
		return fmt.Errorf("version must not be empty")
	}
	return nil
}
