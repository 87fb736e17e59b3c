package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status describes the acquisition state of one cache location.
type Status int

const (
	// StatusUndefined means no instance has started acquiring the binaries
	// for this cache location.
	StatusUndefined Status = iota

	// StatusInProgress means one instance is currently downloading and
	// unpacking the binaries. Other instances wait rather than re-download.
	StatusInProgress

	// StatusFinished means the binaries have been acquired and the cache is
	// populated.
	StatusFinished
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusUndefined:
		return "undefined"
	case StatusInProgress:
		return "in-progress"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// PollInterval is the interval at which waiters re-check the acquisition
// status of a cache location held in-progress by another instance. Bounded
// polling is acceptable here: acquisition is a one-time, minutes-scale
// operation, not a hot path.
const PollInterval = 100 * time.Millisecond

// Registry tracks the acquisition status of cache locations within one
// process. It is the only cross-instance mutable shared state: every
// controller sharing a cache location must share a Registry so that exactly
// one of them downloads the binaries.
//
// The mutex guards only the map insert/lookup, never the download itself.
// Registry is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	status map[string]Status
}

// NewRegistry creates an empty Registry. Tests instantiate isolated
// registries; production callers typically share Default.
func NewRegistry() *Registry {
	return &Registry{status: make(map[string]Status)}
}

// Get returns the acquisition status recorded for key. A key never written
// reports StatusUndefined.
func (r *Registry) Get(key string) Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[key]
}

// MarkInProgress records that the calling instance is acquiring the binaries
// for key. It must be called before the download starts. Idempotent when the
// slot was already claimed via Begin.
func (r *Registry) MarkInProgress(key string) {
	r.set(key, StatusInProgress)
}

// Begin atomically claims the acquisition slot for key. When the status is
// undefined it transitions to in-progress and reports claimed=true, making
// the caller the sole acquirer. Otherwise the current status is returned
// with claimed=false. The check-and-claim happens under one lock so that at
// most one instance ever transitions a key from undefined to in-progress.
func (r *Registry) Begin(key string) (status Status, claimed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.status[key]
	if s == StatusUndefined {
		r.status[key] = StatusInProgress
		return StatusInProgress, true
	}
	return s, false
}

// MarkFinished records that acquisition for key has completed and the cache
// is populated. It must be called after the unpack completes; waiters blocked
// in WaitWhileInProgress return once the status leaves StatusInProgress.
func (r *Registry) MarkFinished(key string) {
	r.set(key, StatusFinished)
}

// Reset rolls the status for key back to StatusUndefined. The acquiring
// instance calls this when acquisition fails after MarkInProgress, so that
// waiters are not stranded polling forever and the next caller can retry
// the download.
func (r *Registry) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.status, key)
}

func (r *Registry) set(key string, s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[key] = s
}

// WaitWhileInProgress blocks while the status for key is StatusInProgress,
// polling at PollInterval, and returns the first status observed outside
// in-progress. Returns the context error if ctx is canceled first, which is
// the liveness escape for an acquirer that died without finishing.
func (r *Registry) WaitWhileInProgress(ctx context.Context, key string) (Status, error) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		s := r.Get(key)
		if s != StatusInProgress {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return s, fmt.Errorf("waiting for binaries acquisition of %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// defaultRegistry is shared by all controllers in the process that do not
// inject their own Registry.
var defaultRegistry = sync.OnceValue(NewRegistry)

// Default returns the process-wide shared Registry.
func Default() *Registry {
	return defaultRegistry()
}
