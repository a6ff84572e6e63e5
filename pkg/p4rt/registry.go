package p4rt

import (
	"errors"
	"sync"
)

// Shutdowner is what the registry tracks; Connection satisfies it.
type Shutdowner interface {
	Shutdown() error
}

// Registry tracks live connections for bulk shutdown. It is a shutdown-all
// list, not a liveness index: shutting a connection down does not remove it.
// Composition roots can own their own Registry; Default serves the common
// process-wide case.
type Registry struct {
	mu    sync.Mutex
	conns []Shutdowner
}

func NewRegistry() *Registry { return &Registry{} }

// Register adds a connection to the shutdown list.
func (r *Registry) Register(c Shutdowner) {
	r.mu.Lock()
	r.conns = append(r.conns, c)
	r.mu.Unlock()
}

// ShutdownAll shuts down every registered connection. One connection's
// failure never prevents attempting the others; the joined errors are
// returned after the full sweep.
func (r *Registry) ShutdownAll() error {
	r.mu.Lock()
	conns := append([]Shutdowner(nil), r.conns...)
	r.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Default is the process-wide registry used by Connect when no registry is
// supplied.
var Default = NewRegistry()

// ShutdownAll shuts down every connection in the default registry.
func ShutdownAll() error { return Default.ShutdownAll() }
