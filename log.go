package pgembed

import (
	"log/slog"

	"github.com/pgembed/pgembed/internal/server"
)

// SetLogger replaces the package-level logger used by pgembed.
// This allows applications to integrate pgembed logging with their own
// logging infrastructure. The provided logger should already have any
// desired attributes; pgembed will not add additional attributes.
//
// If l is nil, the logger resets to the default: slog.Default() with
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// Thread safety: SetLogger is safe to call concurrently with other pgembed
// operations. Both the custom logger and the cached default are stored as
// atomic pointers, so loads and stores are data-race-free. For a strict
// happens-before guarantee, call SetLogger before constructing Servers
// (e.g., in TestMain before m.Run).
//
// Example:
//
//	pgembed.SetLogger(myLogger.With("component", "pgembed"))
func SetLogger(l *slog.Logger) {
	server.SetLogger(l)
}
