// Package supervise spawns and supervises the external server commands.
//
// A supervised run captures the command's output streams, drains them
// line-by-line into the log concurrently with awaiting process exit, bounds
// the whole run with a timeout, and maps the outcome onto the lifecycle
// error taxonomy. A command that outlives its timeout is terminated with
// SIGTERM, escalating to SIGKILL after a grace period.
package supervise
