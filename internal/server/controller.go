package server

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/pgembed/pgembed/internal/cache"
	"github.com/pgembed/pgembed/internal/command"
	"github.com/pgembed/pgembed/internal/fetch"
	"github.com/pgembed/pgembed/internal/pgmigrate"
	"github.com/pgembed/pgembed/internal/supervise"
)

// Controller manages one embedded PostgreSQL instance: binaries acquisition,
// database initialization, server start/stop, and teardown.
//
// Lifecycle methods are not safe for concurrent use on the same Controller;
// the caller drives Setup, Start, Stop, and Shutdown sequentially. Status may
// be read from any goroutine. Multiple Controllers (sharing a Registry and
// cache directory) coordinate binary acquisition safely among themselves and
// across processes.
type Controller struct {
	cfg    Config
	access *cache.Access
	build  command.Builder
	sup    *supervise.Supervisor

	status atomic.Int32

	// serverURI is the connection URI of the default database, computed once
	// at construction.
	serverURI string
}

// New validates the configuration, resolves and creates the cache and data
// directories, and returns a Controller in the uninitialized state.
func New(cfg Config) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger()
	}
	if cfg.Registry == nil {
		cfg.Registry = cache.Default()
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = fetch.NewHTTPFetcher(nil, cfg.Logger)
	}
	if cfg.Unpacker == nil {
		cfg.Unpacker = UnpackerFunc(fetch.Unpack)
	}

	loc := cache.Location{
		OSDir:    cfg.Fetch.OS.CacheDirName(),
		Arch:     string(cfg.Fetch.Arch),
		Version:  string(cfg.Fetch.Version),
		Platform: cfg.Fetch.Platform(),
	}
	paths, err := cache.Resolve(loc, cfg.DataDir, cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:    cfg,
		access: cache.NewAccess(paths, cfg.Registry, cfg.Logger),
		build: command.Builder{
			PgCtl:        paths.PgCtl,
			InitDB:       paths.InitDB,
			DataDir:      paths.DataDir,
			PasswordFile: paths.Password,
			User:         cfg.User,
			Auth:         cfg.Auth,
			Port:         cfg.Port,
		},
		sup:       supervise.New(cfg.Logger),
		serverURI: fmt.Sprintf("postgres://%s:%s@localhost:%d", cfg.User, cfg.Password, cfg.Port),
	}
	c.status.Store(int32(StatusUninitialized))
	return c, nil
}

// Status returns the current lifecycle status. Safe for concurrent use.
func (c *Controller) Status() Status {
	return Status(c.status.Load())
}

func (c *Controller) setStatus(s Status) {
	c.status.Store(int32(s))
}

// Paths returns the resolved filesystem paths of this instance.
func (c *Controller) Paths() cache.Paths {
	return c.access.Paths()
}

// Setup prepares the instance for its first start: it acquires the server
// binaries if the cache does not hold them, writes the credentials file, and
// initializes the database cluster unless the data directory already holds
// one (a persistent instance restarting). On success the controller is in
// the initialized state.
func (c *Controller) Setup(ctx context.Context) error {
	if err := c.AcquireBinaries(ctx); err != nil {
		c.setStatus(StatusFailure)
		return err
	}
	if err := c.access.WriteCredentials([]byte(c.cfg.Password)); err != nil {
		c.setStatus(StatusFailure)
		return err
	}
	if c.access.DBFilesExist() {
		c.cfg.Logger.Debug("data directory already initialized, skipping initdb",
			"data_dir", c.access.Paths().DataDir)
		c.setStatus(StatusInitialized)
		return nil
	}
	return c.InitDB(ctx)
}

// AcquireBinaries makes sure the cache directory holds the server
// executables, downloading and unpacking the binaries archive when needed.
// In-process coordination goes through the registry; a file lock extends the
// mutual exclusion to other processes sharing the cache directory. A failed
// acquisition resets the registry slot so waiters and later callers retry
// instead of hanging forever.
func (c *Controller) AcquireBinaries(ctx context.Context) error {
	needed, err := c.access.AcquisitionNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		return nil
	}

	err = func() error {
		fl, err := cache.AcquireFileLock(ctx, c.access.Paths().LockPath())
		if err != nil {
			return err
		}
		defer cache.ReleaseFileLock(c.cfg.Logger, fl)

		// Another process may have populated the cache while this one was
		// waiting on the file lock.
		if c.access.ExecutablesCached() {
			return nil
		}

		c.cfg.Logger.Info("acquiring server binaries",
			"platform", c.cfg.Fetch.Platform(), "version", c.cfg.Fetch.Version)
		data, err := c.cfg.Fetcher.Fetch(ctx, c.cfg.Fetch)
		if err != nil {
			return err
		}
		if err := c.access.WriteArchive(data); err != nil {
			return err
		}
		return c.cfg.Unpacker.Unpack(c.access.Paths().Archive, c.access.Paths().CacheDir)
	}()
	if err != nil {
		c.access.ResetAcquisition()
		return err
	}

	c.access.MarkFinished()
	return nil
}

// InitDB initializes the database cluster in the data directory by running
// initdb. On success the controller is in the initialized state.
func (c *Controller) InitDB(ctx context.Context) error {
	return c.run(ctx, c.build.InitDBCommand(), StatusInitializing, StatusInitialized)
}

// Start starts the server by running pg_ctl start and waits until it accepts
// connections. On success the controller is in the started state.
func (c *Controller) Start(ctx context.Context) error {
	return c.run(ctx, c.build.StartCommand(), StatusStarting, StatusStarted)
}

// Stop shuts the server down by running pg_ctl stop. On success the
// controller is in the stopped state.
func (c *Controller) Stop(ctx context.Context) error {
	return c.run(ctx, c.build.StopCommand(), StatusStopping, StatusStopped)
}

// run executes one external command under supervision, moving through the
// transitional status while the command runs and settling on ok on success
// or failure on any error.
func (c *Controller) run(ctx context.Context, spec command.Spec, transitional, ok Status) error {
	c.setStatus(transitional)
	if err := c.sup.Run(ctx, spec, c.cfg.CommandTimeout); err != nil {
		c.setStatus(StatusFailure)
		return err
	}
	c.setStatus(ok)
	return nil
}

// Shutdown tears the instance down. A still-running server is stopped
// best-effort: a stop failure is logged but does not abort the teardown.
// Non-persistent instances then have their data directory and credentials
// file removed; persistent instances keep both. Shutdown is idempotent.
func (c *Controller) Shutdown(ctx context.Context) error {
	switch c.Status() {
	case StatusStarting, StatusStarted, StatusStopping, StatusFailure:
		if err := c.Stop(ctx); err != nil {
			c.cfg.Logger.Warn("best-effort stop during shutdown failed", "error", err)
		}
	}
	if c.cfg.Persistent {
		return nil
	}
	return c.access.CleanupInstance()
}

// ConnectionURI returns the connection URI of the default database:
//
//	postgres://<user>:<password>@localhost:<port>
func (c *Controller) ConnectionURI() string {
	return c.serverURI
}

// DatabaseURI returns the connection URI of the named database:
//
//	postgres://<user>:<password>@localhost:<port>/<name>
func (c *Controller) DatabaseURI(name string) string {
	return c.serverURI + "/" + name
}

// CreateDatabase creates the named database on the running server.
func (c *Controller) CreateDatabase(ctx context.Context, name string) error {
	return pgmigrate.CreateDatabase(ctx, c.serverURI, name)
}

// DropDatabase drops the named database on the running server.
func (c *Controller) DropDatabase(ctx context.Context, name string) error {
	return pgmigrate.DropDatabase(ctx, c.serverURI, name)
}

// DatabaseExists reports whether the named database exists on the running
// server.
func (c *Controller) DatabaseExists(ctx context.Context, name string) (bool, error) {
	return pgmigrate.DatabaseExists(ctx, c.serverURI, name)
}

// Migrate applies the configured SQL migrations to the named database (or to
// the default database when name is empty). It is a no-op when no migration
// directory is configured.
func (c *Controller) Migrate(name string) error {
	if c.cfg.MigrationDir == "" {
		return nil
	}
	uri := c.serverURI
	if name != "" {
		uri = c.DatabaseURI(name)
	}
	return pgmigrate.Run(c.cfg.MigrationDir, uri, c.cfg.Logger)
}
