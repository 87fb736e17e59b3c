// Package command constructs the external command invocations that drive an
// embedded PostgreSQL server: initdb, pg_ctl start, and pg_ctl stop.
//
// The package performs no I/O. It only builds argument lists from resolved
// paths and server settings; spawning and supervision belong to the
// supervise package.
package command
