package server

// Status describes where a Controller currently sits in the server lifecycle.
// Transitions are driven exclusively by Controller methods; a failed external
// command moves the controller to StatusFailure, from which any lifecycle
// operation may be retried.
type Status int

const (
	// StatusUninitialized is the state of a freshly constructed Controller:
	// binaries may be absent and no data directory has been initialized.
	StatusUninitialized Status = iota
	// StatusInitializing means initdb is currently running.
	StatusInitializing
	// StatusInitialized means the data directory exists and holds a valid
	// cluster, but no server process is running.
	StatusInitialized
	// StatusStarting means pg_ctl start is currently running.
	StatusStarting
	// StatusStarted means the server process is up and accepting connections.
	StatusStarted
	// StatusStopping means pg_ctl stop is currently running.
	StatusStopping
	// StatusStopped means the server process has been shut down.
	StatusStopped
	// StatusFailure means the most recent lifecycle operation failed.
	StatusFailure
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitializing:
		return "initializing"
	case StatusInitialized:
		return "initialized"
	case StatusStarting:
		return "starting"
	case StatusStarted:
		return "started"
	case StatusStopping:
		return "stopping"
	case StatusStopped:
		return "stopped"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}
