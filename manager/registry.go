package manager

import (
	"fmt"
	"sync"

	"github.com/stratumkv/stratum/storage"
)

// createFunc builds a store for a name on a registry miss.
type createFunc func(name string) (storage.Store, error)

// registryEntry is one cached store, or one creation in progress. ready is
// closed once store and err are final.
type registryEntry struct {
	ready chan struct{}
	store storage.Store
	err   error
}

// registry is the concurrent name-to-store cache. Membership transitions are
// guarded by a single RWMutex, but creation itself happens outside the lock:
// the first caller for a name installs an entry and runs create, later callers
// for the same name wait on that entry, and callers for other names proceed
// independently.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	create  createFunc
}

func newRegistry(create createFunc) *registry {
	return &registry{
		entries: make(map[string]*registryEntry),
		create:  create,
	}
}

// getOrCreate returns the store cached under name, creating it on a miss.
// Exactly one concurrent caller per name runs the creation; the rest receive
// its result. A failed creation is not cached, so a later call retries.
func (r *registry) getOrCreate(name string) (storage.Store, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if e, ok = r.entries[name]; !ok {
			e = &registryEntry{ready: make(chan struct{})}
			r.entries[name] = e
			r.mu.Unlock()

			r.runCreate(name, e)
			return e.store, e.err
		}
		r.mu.Unlock()
	}

	<-e.ready
	return e.store, e.err
}

// runCreate runs the creation for name into e. The entry is always published
// (ready closed) and always evicted on failure, even when create panics, so a
// panicking constructor can never strand waiters or wedge the name.
func (r *registry) runCreate(name string, e *registryEntry) {
	defer func() {
		if rec := recover(); rec != nil {
			e.err = fmt.Errorf("create store %q: panic: %v", name, rec)
		}
		if e.err != nil {
			r.mu.Lock()
			delete(r.entries, name)
			r.mu.Unlock()
		}
		close(e.ready)
	}()
	e.store, e.err = r.create(name)
}

// put registers an already-open store under name, bypassing the creation
// path. Used at startup to adopt stores recovered from disk.
func (r *registry) put(name string, store storage.Store) {
	e := &registryEntry{ready: make(chan struct{}), store: store}
	close(e.ready)

	r.mu.Lock()
	r.entries[name] = e
	r.mu.Unlock()
}

// snapshot returns the stores whose creation has completed, keyed by name.
// Creations in flight at call time are left out.
func (r *registry) snapshot() map[string]storage.Store {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]storage.Store, len(r.entries))
	for name, e := range r.entries {
		select {
		case <-e.ready:
			if e.err == nil {
				out[name] = e.store
			}
		default:
		}
	}
	return out
}

// invalidateAll evicts every entry and closes every cached store. A close
// failure is passed to capture rather than returned, so one failing store
// never prevents the rest from closing.
func (r *registry) invalidateAll(capture func(error)) {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for name, e := range entries {
		<-e.ready
		if e.err != nil {
			continue
		}
		if err := e.store.Close(); err != nil {
			capture(fmt.Errorf("close store %q: %w", name, err))
		}
	}
}
