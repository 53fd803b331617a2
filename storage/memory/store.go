package memory

import (
	"bytes"
	"slices"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/stratumkv/stratum/storage"
)

// Store implements storage.Store over an in-process concurrent map.
// Values are copied on the way in and out so callers can never alias the
// store's internal state.
type Store struct {
	name   string
	data   *xsync.MapOf[string, []byte]
	closed atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// New creates an empty volatile store.
func New(name string) storage.Store {
	return &Store{
		name: name,
		data: xsync.NewMapOf[string, []byte](),
	}
}

// Name returns the store's name.
func (s *Store) Name() string {
	return s.name
}

// Get returns the value for key.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, storage.ErrStoreClosed
	}
	value, ok := s.data.Load(string(key))
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(value), true, nil
}

// Put inserts or replaces the value for key.
func (s *Store) Put(key, value []byte) error {
	if s.closed.Load() {
		return storage.ErrStoreClosed
	}
	s.data.Store(string(key), slices.Clone(value))
	return nil
}

// Delete removes key.
func (s *Store) Delete(key []byte) error {
	if s.closed.Load() {
		return storage.ErrStoreClosed
	}
	s.data.Delete(string(key))
	return nil
}

// CompareAndPut atomically replaces the value for key if its current value
// equals expected. A nil expected means the key must be absent.
func (s *Store) CompareAndPut(key, expected, value []byte) (bool, error) {
	if s.closed.Load() {
		return false, storage.ErrStoreClosed
	}

	swapped := false
	s.data.Compute(string(key), func(current []byte, loaded bool) ([]byte, bool) {
		matches := false
		if expected == nil {
			matches = !loaded
		} else {
			matches = loaded && bytes.Equal(current, expected)
		}
		if !matches {
			// Keep the existing value; delete when nothing was loaded so the
			// failed attempt doesn't materialize an entry.
			return current, !loaded
		}
		swapped = true
		return slices.Clone(value), false
	})
	return swapped, nil
}

// DeleteAllValues removes every key-value pair.
func (s *Store) DeleteAllValues() error {
	if s.closed.Load() {
		return storage.ErrStoreClosed
	}
	s.data.Clear()
	return nil
}

// Close marks the store closed. Closing twice is safe.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
