package badger

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-crypt/x/blake2b"
	"github.com/stratumkv/stratum/storage"
)

// Store implements storage.Store over one namespace of a shared engine.
//
// CompareAndPut serializes writers per key through a set of striped mutexes;
// plain reads and writes go straight to Badger, whose transactions are safe
// for concurrent use.
type Store struct {
	name    string
	ns      *Namespace
	engine  *Engine
	stripes []sync.Mutex
	closed  atomic.Bool
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps a namespace of an open engine as a storage.Store.
// stripeCount sets the lock partitioning for CompareAndPut.
func NewStore(name string, ns *Namespace, engine *Engine, stripeCount int) storage.Store {
	if stripeCount < 1 {
		stripeCount = 1
	}
	return &Store{
		name:    name,
		ns:      ns,
		engine:  engine,
		stripes: make([]sync.Mutex, stripeCount),
	}
}

// Name returns the store's name.
func (s *Store) Name() string {
	return s.name
}

// key prepends the namespace prefix to a caller key.
func (s *Store) key(k []byte) []byte {
	prefix := s.ns.keyPrefix()
	out := make([]byte, 0, len(prefix)+len(k))
	out = append(out, prefix...)
	return append(out, k...)
}

// stripeHashers pools BLAKE2b hashers so stripe selection does not allocate
// one per CompareAndPut.
var stripeHashers = sync.Pool{
	New: func() any {
		h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
		return h
	},
}

// stripe picks the mutex guarding key, using a BLAKE2b hash of the key bytes.
func (s *Store) stripe(key []byte) *sync.Mutex {
	h := stripeHashers.Get().(hash.Hash)
	h.Reset()
	h.Write(key)
	var sum [8]byte
	h.Sum(sum[:0])
	stripeHashers.Put(h)
	return &s.stripes[binary.LittleEndian.Uint64(sum[:])%uint64(len(s.stripes))]
}

// Get returns the value for key.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, storage.ErrStoreClosed
	}

	var (
		value []byte
		found bool
	)
	err := s.engine.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Put inserts or replaces the value for key.
func (s *Store) Put(key, value []byte) error {
	if s.closed.Load() {
		return storage.ErrStoreClosed
	}
	return s.engine.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(key), value)
	})
}

// Delete removes key.
func (s *Store) Delete(key []byte) error {
	if s.closed.Load() {
		return storage.ErrStoreClosed
	}
	return s.engine.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key(key))
	})
}

// CompareAndPut atomically replaces the value for key if its current value
// equals expected. A nil expected means the key must be absent.
func (s *Store) CompareAndPut(key, expected, value []byte) (bool, error) {
	if s.closed.Load() {
		return false, storage.ErrStoreClosed
	}

	mu := s.stripe(key)
	mu.Lock()
	defer mu.Unlock()

	swapped := false
	err := s.engine.db.Update(func(txn *badger.Txn) error {
		var (
			current []byte
			found   bool
		)
		item, err := txn.Get(s.key(key))
		switch {
		case err == nil:
			if current, err = item.ValueCopy(nil); err != nil {
				return err
			}
			found = true
		case errors.Is(err, badger.ErrKeyNotFound):
		default:
			return err
		}

		// Presence is tracked separately from the value: a present key may
		// hold an empty value, which must still defeat an absent-expected
		// swap.
		if expected == nil {
			if found {
				return nil
			}
		} else if !found || !bytes.Equal(current, expected) {
			return nil
		}

		if err := txn.Set(s.key(key), value); err != nil {
			return err
		}
		swapped = true
		return nil
	})
	return swapped, err
}

// DeleteAllValues drops every key in the store's namespace. Other namespaces
// are untouched.
func (s *Store) DeleteAllValues() error {
	if s.closed.Load() {
		return storage.ErrStoreClosed
	}
	return s.engine.db.DropPrefix(s.ns.keyPrefix())
}

// Close releases the store's namespace handle. The shared engine stays open.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.ns.Close()
}
