// Package server owns the lifecycle of one embedded PostgreSQL instance.
//
// A Controller composes the binaries cache, the command builder, and the
// process supervisor: it acquires server binaries when needed, writes the
// instance credentials, and drives the external initdb / pg_ctl start /
// pg_ctl stop sequence while tracking a single-writer server status. An
// explicit Shutdown stops a still-running server best-effort and removes the
// transient state of non-persistent instances.
package server
