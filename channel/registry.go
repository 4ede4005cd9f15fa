package channel

import "sync"

type registration struct {
	command string
	handler Handler
}

// Registry is an ordered list of command registrations. Several handlers may
// be registered for the same command; they are kept in insertion order. It is
// safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a registration for command.
func (r *Registry) Add(command string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, registration{command: command, handler: h})
}

// Has reports whether command has at least one registration.
func (r *Registry) Has(command string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.command == command {
			return true
		}
	}
	return false
}

// Remove drops every registration for command and returns how many were
// removed.
func (r *Registry) Remove(command string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.command != command {
			kept = append(kept, e)
		}
	}

	removed := len(r.entries) - len(kept)
	clear(r.entries[len(kept):])
	r.entries = kept
	return removed
}

// Handlers returns the handlers registered for command in insertion order.
// The result is a snapshot; later changes to the registry do not affect it.
func (r *Registry) Handlers(command string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var hs []Handler
	for _, e := range r.entries {
		if e.command == command {
			hs = append(hs, e.handler)
		}
	}
	return hs
}

// Commands returns the distinct registered command names in order of first
// registration.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.entries))
	var out []string
	for _, e := range r.entries {
		if !seen[e.command] {
			seen[e.command] = true
			out = append(out, e.command)
		}
	}
	return out
}

// Len returns the total number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset drops every registration and returns how many were removed.
func (r *Registry) Reset() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.entries)
	r.entries = nil
	return n
}
