package storage

// ReservedStoreName is the namespace name the engine keeps for itself.
// It is never a valid caller-supplied store name.
const ReservedStoreName = "default"

// Store is a named byte-oriented key-value container.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// Name returns the store's name.
	Name() string

	// Get returns the value for key. found is false when the key is absent,
	// which is distinct from a present key holding an empty value.
	Get(key []byte) (value []byte, found bool, err error)

	// Put inserts or replaces the value for key.
	Put(key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// CompareAndPut atomically replaces the value for key with value if the
	// current value equals expected. A nil expected means the key must be
	// absent. Returns whether the swap happened.
	CompareAndPut(key, expected, value []byte) (swapped bool, err error)

	// DeleteAllValues removes every key-value pair in the store. The store
	// stays open and usable afterwards.
	DeleteAllValues() error

	// Close releases the store's resources. Closing twice is safe; operations
	// after Close fail with ErrStoreClosed.
	Close() error
}

// ValidateStoreName rejects names a caller may not use for a store.
func ValidateStoreName(name string) error {
	if name == "" {
		return ErrEmptyStoreName
	}
	if name == ReservedStoreName {
		return ErrReservedStoreName
	}
	return nil
}
