package pgmigrate

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"

	// Register the postgres database driver and the file source driver used
	// by migration URIs.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Run applies all pending SQL migrations from migrationDir against the
// database identified by dbURI. An up-to-date database is not an error.
func Run(migrationDir, dbURI string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(migrationDir)
	if err != nil {
		return fmt.Errorf("resolve migration dir %s: %w", migrationDir, err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(abs), dbURI)
	if err != nil {
		return fmt.Errorf("open migrator for %s: %w", abs, err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Debug("close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("no pending migrations", "dir", abs)
			return nil
		}
		return fmt.Errorf("apply migrations from %s: %w", abs, err)
	}
	logger.Info("migrations applied", "dir", abs)
	return nil
}
