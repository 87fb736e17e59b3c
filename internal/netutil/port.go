package netutil

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// maxPortRetries is the maximum number of attempts to find a port not already
// in the registry. This guards against pathological cases.
const maxPortRetries = 20

// PortRegistry tracks ports currently reserved by this process. Each embedded
// server instance that asks for an automatic port goes through a shared
// registry so that two concurrently constructed instances never end up with
// the same port.
type PortRegistry struct {
	mu    sync.Mutex
	ports map[int]struct{}
	log   *slog.Logger
}

// NewPortRegistry creates a new PortRegistry ready for use.
// If logger is nil, slog.Default() is used as a fallback.
func NewPortRegistry(logger *slog.Logger) *PortRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortRegistry{
		ports: make(map[int]struct{}),
		log:   logger,
	}
}

// reserve attempts to register a port in the registry.
// Returns true if the port was successfully reserved, false if already taken.
func (r *PortRegistry) reserve(port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ports[port]; ok {
		return false
	}
	r.ports[port] = struct{}{}
	return true
}

// Release removes a port from the registry, allowing it to be reused.
func (r *PortRegistry) Release(port int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.ports, port)
}

// FreePort asks the kernel for a free localhost TCP port, skipping any ports
// already reserved in the registry. The returned port stays registered until
// the caller invokes Release; the probing listener itself is closed before
// returning, since the port is only needed by the external server process.
func (r *PortRegistry) FreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("resolve tcp address: %w", err)
	}

	for range maxPortRetries {
		l, err := net.ListenTCP("tcp", addr)
		if err != nil {
			return 0, fmt.Errorf("listen on tcp address: %w", err)
		}
		tcpAddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			_ = l.Close()
			return 0, fmt.Errorf("unexpected address type: %T", l.Addr())
		}
		port := tcpAddr.Port
		if r.reserve(port) {
			if closeErr := l.Close(); closeErr != nil {
				r.log.Warn("close listener after port allocation", "port", port, "error", closeErr)
			}
			return port, nil
		}
		// Port already in registry, close and retry to get a different one.
		r.log.Debug("port already in registry, retrying", "port", port)
		_ = l.Close()
	}
	return 0, fmt.Errorf("allocate unique port: exhausted %d attempts", maxPortRetries)
}

// defaultRegistry is the process-wide registry used by Default. It is created
// lazily so that callers who inject their own registry pay nothing for it.
var defaultRegistry = sync.OnceValue(func() *PortRegistry {
	return NewPortRegistry(nil)
})

// Default returns the process-wide shared PortRegistry.
func Default() *PortRegistry {
	return defaultRegistry()
}
