package pgembed

import (
	"os"
	"path/filepath"

	"github.com/pgembed/pgembed/internal/fetch"
	"github.com/pgembed/pgembed/internal/server"
)

// serverConfig holds configuration for a Server. This unexported type wraps
// server.Config via embedding, keeping internal/server types out of the
// public API signature while avoiding field-by-field duplication.
type serverConfig struct {
	server.Config
}

// toServerConfig returns the embedded server.Config.
func (c serverConfig) toServerConfig() server.Config {
	return c.Config
}

// defaultServerConfig returns a serverConfig populated with all default
// values. The binaries spec targets the running platform; callers on musl
// Linux must select OSAlpineLinux explicitly via WithOS.
func defaultServerConfig() serverConfig {
	return serverConfig{server.Config{
		DataDir:        filepath.Join(os.TempDir(), DefaultDataDirName, "data"),
		Port:           DefaultPort,
		User:           DefaultUser,
		Password:       DefaultPassword,
		Auth:           DefaultAuthMethod,
		CommandTimeout: DefaultTimeout,
		Fetch: fetch.Spec{
			Host:    DefaultFetchHost,
			OS:      fetch.HostOS(),
			Arch:    fetch.HostArch(),
			Version: DefaultVersion,
		},
	}}
}
