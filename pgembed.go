package pgembed

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/pgembed/pgembed/internal/cache"
	"github.com/pgembed/pgembed/internal/netutil"
	"github.com/pgembed/pgembed/internal/server"
)

// Server is one embedded PostgreSQL instance. The zero value is not usable;
// construct with New.
//
// Lifecycle methods (Setup, Start, Stop, Shutdown) are driven sequentially
// by the owner; Status and the URI accessors are safe from any goroutine.
// Multiple Servers coexist in one process as long as each has its own data
// directory and port.
type Server struct {
	ctrl *server.Controller

	// shutdown latches once Shutdown runs; lifecycle methods refuse to
	// operate on a shut-down server.
	shutdown atomic.Bool

	cleanup runtime.Cleanup
}

// New creates a Server from the given options, resolving and creating its
// cache and data directories. No download or subprocess runs until Setup.
//
// Panics if any option receives an invalid value; returns an error for
// invalid combinations (e.g. AuthScramSHA256 with a pre-11 server version).
func New(opts ...Option) (*Server, error) {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctrl, err := server.New(cfg.toServerConfig())
	if err != nil {
		return nil, err
	}

	s := &Server{ctrl: ctrl}

	// Safety net for servers dropped without Shutdown: log the leak so the
	// leftover process and on-disk state are at least visible. The cleanup
	// must not reference s (it would never become unreachable), so it
	// captures only the logger and the data directory path.
	log := cfg.Logger
	if log == nil {
		log = server.Logger()
	}
	s.cleanup = runtime.AddCleanup(s, func(dataDir string) {
		log.Warn("embedded server became unreachable without Shutdown; "+
			"its process and on-disk state may remain", "data_dir", dataDir)
	}, ctrl.Paths().DataDir)

	return s, nil
}

// Status returns the current lifecycle status.
func (s *Server) Status() Status {
	return s.ctrl.Status()
}

// DataDir returns the resolved data directory of this instance.
func (s *Server) DataDir() string {
	return s.ctrl.Paths().DataDir
}

// CacheDir returns the resolved binaries cache directory of this instance.
func (s *Server) CacheDir() string {
	return s.ctrl.Paths().CacheDir
}

// Setup prepares the instance for its first start: it downloads and unpacks
// the server binaries unless the cache already holds them, writes the
// credentials file, and runs initdb unless the data directory already holds
// an initialized cluster.
//
// Returns ErrAlreadyShutdown after Shutdown.
func (s *Server) Setup(ctx context.Context) error {
	if s.shutdown.Load() {
		return ErrAlreadyShutdown
	}
	return s.ctrl.Setup(ctx)
}

// Start starts the server and waits until it accepts connections.
//
// Returns ErrAlreadyShutdown after Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if s.shutdown.Load() {
		return ErrAlreadyShutdown
	}
	return s.ctrl.Start(ctx)
}

// Stop shuts the server process down and waits for it to exit.
//
// Returns ErrAlreadyShutdown after Shutdown.
func (s *Server) Stop(ctx context.Context) error {
	if s.shutdown.Load() {
		return ErrAlreadyShutdown
	}
	return s.ctrl.Stop(ctx)
}

// Shutdown tears the instance down for good. A still-running server is
// stopped best-effort; non-persistent instances then have their data
// directory and credentials file removed. Shutdown is idempotent: the second
// and later calls return nil without doing anything.
//
// Using defer srv.Shutdown(ctx) right after New is the intended pattern.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	s.cleanup.Stop()
	return s.ctrl.Shutdown(ctx)
}

// ConnectionURI returns the connection URI of the default database:
//
//	postgres://<user>:<password>@localhost:<port>
func (s *Server) ConnectionURI() string {
	return s.ctrl.ConnectionURI()
}

// DatabaseURI returns the connection URI of the named database:
//
//	postgres://<user>:<password>@localhost:<port>/<name>
func (s *Server) DatabaseURI(name string) string {
	return s.ctrl.DatabaseURI(name)
}

// CreateDatabase creates the named database. The server must be started.
func (s *Server) CreateDatabase(ctx context.Context, name string) error {
	return s.ctrl.CreateDatabase(ctx, name)
}

// DropDatabase drops the named database. The server must be started.
func (s *Server) DropDatabase(ctx context.Context, name string) error {
	return s.ctrl.DropDatabase(ctx, name)
}

// DatabaseExists reports whether the named database exists. The server must
// be started.
func (s *Server) DatabaseExists(ctx context.Context, name string) (bool, error) {
	return s.ctrl.DatabaseExists(ctx, name)
}

// Migrate applies the SQL migrations from the configured migration directory
// to the named database, or to the default database when name is empty. It
// is a no-op when no migration directory is configured. The server must be
// started.
func (s *Server) Migrate(name string) error {
	return s.ctrl.Migrate(name)
}

// FreePort returns a TCP port that is currently unused and not handed out to
// a previous FreePort caller in this process. Pass the result to WithPort
// for parallel instances.
func FreePort() (int, error) {
	return netutil.Default().FreePort()
}

// ReleasePort returns a port obtained from FreePort to the pool once the
// instance using it has shut down.
func ReleasePort(port int) {
	netutil.Default().Release(port)
}

// Purge removes the entire binaries cache for the current user: every
// version and platform ever downloaded on this host. Running instances are
// unaffected until their next Setup. Individual removal failures are logged
// and swallowed; only a missing platform cache root is reported, wrapped in
// ErrPurge.
func Purge() error {
	return cache.PurgeAll(server.Logger())
}
