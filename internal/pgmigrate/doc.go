// Package pgmigrate provides optional database-level helpers for a running
// embedded server: database existence checks, creation and removal, and a
// schema-migration runner.
//
// These helpers are the only part of pgembed that speaks the PostgreSQL wire
// protocol; the lifecycle core supervises external processes exclusively.
// They are consumed by the lifecycle controller only when the caller
// configures them (a migration directory, or explicit database management
// calls).
package pgmigrate
