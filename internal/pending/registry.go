// Package pending holds download selection requests that are waiting for a
// human folder choice. Entries are time-bounded: the owner is expected to call
// SweepExpired periodically (once a minute is plenty); the registry never
// schedules its own timers.
package pending

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MaxAge is how long a selection may wait before a sweep removes it.
const MaxAge = 5 * time.Minute

// Selection is one download awaiting a folder choice.
type Selection struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"createdAt"`
}

// Registry is a process-wide store of pending selections. All operations are
// total: a missing id is a normal "not found" result, never an error.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Selection
	now     func() time.Time
}

// NewRegistry returns an empty registry. A nil clock means time.Now; tests
// inject their own.
func NewRegistry(clock func() time.Time) *Registry {
	if clock == nil {
		clock = time.Now
	}
	return &Registry{entries: make(map[string]Selection), now: clock}
}

// Create stores a new selection and returns its id. Ids are random UUIDs, so
// rapid concurrent creates never collide.
func (r *Registry) Create(url, filename string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	r.entries[id] = Selection{ID: id, URL: url, Filename: filename, CreatedAt: r.now()}
	return id
}

// Get looks up a selection. It does not touch the expiry clock.
func (r *Registry) Get(id string) (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.entries[id]
	return s, ok
}

// Take removes a selection and returns it. Removal and lookup happen under
// one lock acquisition, so of any number of concurrent Takes for the same id
// exactly one succeeds.
func (r *Registry) Take(id string) (Selection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	return s, ok
}

// Delete removes a selection. Deleting an unknown id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// SweepExpired removes every entry older than MaxAge relative to now and
// returns how many were removed.
func (r *Registry) SweepExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.entries {
		if now.Sub(s.CreatedAt) > MaxAge {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Len reports how many selections are waiting.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
