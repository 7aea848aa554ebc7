package provision

import "sync"

// RunRegistry prevents concurrent provisioning runs against the same guild.
// It is the only synchronization shared between runs; everything else a run
// touches is owned by that run alone.
type RunRegistry struct {
	mu     sync.Mutex
	active map[string]bool
}

// NewRunRegistry creates an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{active: make(map[string]bool)}
}

// TryAcquire reserves the guild for a run. Returns false if a run is already
// active against it.
func (r *RunRegistry) TryAcquire(guildID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active[guildID] {
		return false
	}
	r.active[guildID] = true
	return true
}

// Release frees the guild unconditionally. Safe to call after an abort or a
// double-release; releasing an unheld key is a no-op.
func (r *RunRegistry) Release(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, guildID)
}

// ActiveCount returns the number of runs currently in flight.
func (r *RunRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}
