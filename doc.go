// Package pgembed runs throwaway PostgreSQL servers from Go, without a
// pre-installed PostgreSQL or a container runtime.
//
// pgembed downloads the server binaries for the host platform on first use,
// caches them per user, initializes a database cluster in a data directory,
// and drives the server process through initdb / pg_ctl start / pg_ctl stop.
// Non-persistent instances clean their on-disk state up again on Shutdown.
//
// # Basic Usage
//
//	import "github.com/pgembed/pgembed"
//
//	ctx := context.Background()
//
//	srv, err := pgembed.New(
//	    pgembed.WithDataDir("/tmp/myapp/db"),
//	    pgembed.WithPort(5433),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Shutdown(ctx)
//
//	if err := srv.Setup(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Connect with any PostgreSQL driver:
//	db, err := sql.Open("pgx", srv.ConnectionURI())
//
// # Parallel Testing
//
// Each test (or package) gets its own Server on its own port and data
// directory; FreePort picks a collision-free port. Servers sharing a binaries
// cache coordinate the download among themselves, in-process and across
// processes, so the archive is fetched once no matter how many instances
// start concurrently:
//
//	port, err := pgembed.FreePort()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	srv, err := pgembed.New(
//	    pgembed.WithDataDir(filepath.Join(t.TempDir(), "db")),
//	    pgembed.WithPort(port),
//	)
//
// # Persistence
//
// By default an instance is ephemeral: Shutdown removes the data directory
// and credentials file. WithPersistent keeps them, and a later Setup against
// the same data directory skips initdb and reuses the existing cluster.
package pgembed
