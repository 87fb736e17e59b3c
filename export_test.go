package pgembed

import (
	"log/slog"
	"time"
)

// ConfigSnapshot holds a copy of serverConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	DataDir        string
	Port           int
	User           string
	Password       string
	Auth           AuthMethod
	Persistent     bool
	CommandTimeout time.Duration
	MigrationDir   string
	FetchHost      string
	FetchOS        OS
	FetchArch      Arch
	FetchVersion   Version
	CacheDir       string
	Registry       *Registry
	Logger         *slog.Logger
	Fetcher        Fetcher
	Unpacker       Unpacker
}

// ApplyOptionsForTesting creates a default serverConfig, applies the given
// options, and returns a ConfigSnapshot of the result. This tests the option
// closures directly without constructing a Server.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		DataDir:        cfg.DataDir,
		Port:           cfg.Port,
		User:           cfg.User,
		Password:       cfg.Password,
		Auth:           cfg.Auth,
		Persistent:     cfg.Persistent,
		CommandTimeout: cfg.CommandTimeout,
		MigrationDir:   cfg.MigrationDir,
		FetchHost:      cfg.Fetch.Host,
		FetchOS:        cfg.Fetch.OS,
		FetchArch:      cfg.Fetch.Arch,
		FetchVersion:   cfg.Fetch.Version,
		CacheDir:       cfg.CacheDir,
		Registry:       cfg.Registry,
		Logger:         cfg.Logger,
		Fetcher:        cfg.Fetcher,
		Unpacker:       cfg.Unpacker,
	}
}
