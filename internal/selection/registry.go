package selection

import (
	"sync"
	"time"
)

type registryEntry struct {
	view       *View
	shopperID  string
	lastAccess time.Time
}

// Registry holds the open views of the process. Views untouched for longer
// than the idle TTL are evicted by Sweep.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewRegistry creates an empty registry. A non-positive ttl disables
// eviction.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		ttl:     ttl,
		nowFunc: time.Now,
	}
}

// Add registers view under id on behalf of shopperID.
func (r *Registry) Add(id, shopperID string, view *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		OpenViews.Inc()
	}
	r.entries[id] = &registryEntry{view: view, shopperID: shopperID, lastAccess: r.nowFunc()}
}

// Get returns the view and its shopper and marks it as used.
func (r *Registry) Get(id string) (*View, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, "", false
	}
	e.lastAccess = r.nowFunc()
	return e.view, e.shopperID, true
}

// Remove drops the view registered under id and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	OpenViews.Dec()
	return true
}

// Sweep evicts views idle since before now minus the TTL and returns how
// many were evicted.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.entries {
		if e.lastAccess.Before(cutoff) {
			delete(r.entries, id)
			evicted++
		}
	}
	OpenViews.Sub(float64(evicted))
	return evicted
}

// Len returns the number of registered views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
