// Package cancel holds the process-wide registry of cooperative cancellation
// flags for in-flight sends. Keys are job ids for scheduled work and
// synthetic uuid-based keys for ad hoc sends.
package cancel

import "sync"

type cell struct {
	canceled bool
}

// Registry maps an operation key to a mutable cancellation flag. Entries are
// created when an operation begins and removed when it ends; nothing here is
// persisted.
type Registry struct {
	mu    sync.Mutex
	cells map[string]*cell
}

func NewRegistry() *Registry {
	return &Registry{cells: map[string]*cell{}}
}

// Begin registers a fresh flag for key if absent. Re-registration reuses the
// existing cell, so a cancellation requested before the sender starts
// iterating is not lost.
func (r *Registry) Begin(key string) {
	if key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cells[key]; !ok {
		r.cells[key] = &cell{}
	}
}

// Cancel sets the flag for key if it exists. It is a silent no-op otherwise:
// the operation may not have started yet, or may already be done.
func (r *Registry) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cells[key]; ok {
		c.canceled = true
	}
}

// Canceled reports the flag for key; absent keys read as false.
func (r *Registry) Canceled(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.cells[key]
	return ok && c.canceled
}

// End removes the entry. Callers run it via defer so it executes regardless
// of how the operation finished.
func (r *Registry) End(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cells, key)
}
