package pgmigrate

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// maintenanceDB is the always-present database used for administrative
// statements that cannot run inside the target database itself.
const maintenanceDB = "postgres"

// connectMaintenance parses the instance connection URI and connects to the
// maintenance database on the same server.
func connectMaintenance(ctx context.Context, serverURI string) (*pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(serverURI)
	if err != nil {
		return nil, fmt.Errorf("parse connection uri: %w", err)
	}
	cfg.Database = maintenanceDB
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to maintenance database: %w", err)
	}
	return conn, nil
}

// DatabaseExists reports whether the named database exists on the server
// reachable via serverURI.
func DatabaseExists(ctx context.Context, serverURI, name string) (bool, error) {
	conn, err := connectMaintenance(ctx, serverURI)
	if err != nil {
		return false, err
	}
	defer conn.Close(ctx) //nolint:errcheck // connection teardown on a throwaway admin session

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query database existence of %q: %w", name, err)
	}
	return exists, nil
}

// CreateDatabase creates the named database. Fails if it already exists.
func CreateDatabase(ctx context.Context, serverURI, name string) error {
	conn, err := connectMaintenance(ctx, serverURI)
	if err != nil {
		return err
	}
	defer conn.Close(ctx) //nolint:errcheck // connection teardown on a throwaway admin session

	// CREATE DATABASE does not accept bind parameters; the identifier is
	// quoted instead.
	stmt := "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create database %q: %w", name, err)
	}
	return nil
}

// DropDatabase removes the named database if it exists.
func DropDatabase(ctx context.Context, serverURI, name string) error {
	conn, err := connectMaintenance(ctx, serverURI)
	if err != nil {
		return err
	}
	defer conn.Close(ctx) //nolint:errcheck // connection teardown on a throwaway admin session

	stmt := "DROP DATABASE IF EXISTS " + pgx.Identifier{name}.Sanitize()
	if _, err := conn.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("drop database %q: %w", name, err)
	}
	return nil
}
