// Package netutil provides free-port allocation for embedded server instances.
//
// The kernel assigns a free port by binding to port 0; a process-wide
// registry prevents the TOCTOU race where two concurrent callers receive the
// same port because the first caller closed its listener before the second
// caller opened theirs.
package netutil
