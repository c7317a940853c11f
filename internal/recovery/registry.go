package recovery

import (
	"sync"
	"time"
)

// Factory builds the orchestrator for a session id.
type Factory func(sessionID string) *Orchestrator

type registryEntry struct {
	orch     *Orchestrator
	lastUsed time.Time
}

// Registry keeps one orchestrator per session. Entries idle for longer than the
// configured window are dropped on the next lookup, unless a request is in flight.
type Registry struct {
	factory Factory
	idle    time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

// NewRegistry creates a registry. idle <= 0 disables eviction.
func NewRegistry(factory Factory, idle time.Duration) *Registry {
	return &Registry{
		factory: factory,
		idle:    idle,
		now:     time.Now,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the orchestrator bound to sessionID, creating it on first use.
func (r *Registry) Get(sessionID string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	entry, ok := r.entries[sessionID]
	if !ok {
		entry = &registryEntry{orch: r.factory(sessionID)}
		r.entries[sessionID] = entry
	}
	entry.lastUsed = now
	return entry.orch
}

// Lookup returns the orchestrator for sessionID without creating one.
func (r *Registry) Lookup(sessionID string) (*Orchestrator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	return entry.orch, true
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) sweepLocked(now time.Time) {
	if r.idle <= 0 {
		return
	}
	for id, entry := range r.entries {
		if now.Sub(entry.lastUsed) < r.idle {
			continue
		}
		if entry.orch.State().Phase == PhaseSubmitting {
			continue
		}
		delete(r.entries, id)
	}
}
