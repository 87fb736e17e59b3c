// Package fileutil provides file operation utilities for directory and file management.
//
// EnsureDir creates directories recursively, and PathExists probes a file by
// attempting to open it. These are used throughout pgembed for preparing
// database data directories and checking cached server executables.
package fileutil
