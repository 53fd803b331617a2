package badger

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/stratumkv/stratum/storage"
)

// openRetryDelay is the pause between attempts to open a directory whose lock
// is held by another process.
const openRetryDelay = 100 * time.Millisecond

// lockWaitMessage is logged exactly once per Open when the directory lock is
// contended, no matter how many retries follow.
const lockWaitMessage = "database directory is locked by another process, waiting for the lock to be released"

// Namespace is a handle to one named key range of an open engine.
type Namespace struct {
	id     uint32
	name   string
	closed atomic.Bool
}

// Name returns the namespace's name.
func (ns *Namespace) Name() string {
	return ns.name
}

// Close releases the handle. Closing twice is safe.
func (ns *Namespace) Close() error {
	ns.closed.Store(true)
	return nil
}

// keyPrefix returns the 4-byte big-endian prefix under which every key of this
// namespace is stored.
func (ns *Namespace) keyPrefix() []byte {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], ns.id)
	return prefix[:]
}

// Engine is the single open BadgerDB instance shared by every persistent
// store of a manager.
type Engine struct {
	db     *badger.DB
	dir    string
	logger *slog.Logger

	mu      sync.Mutex // guards catalog replacement
	catalog *catalog
}

// badgerLoggerAdapter routes Badger's own logging through slog.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the engine at dir and resolves a handle for each requested
// namespace name, positionally matching names. Requested names must already be
// recorded in the directory's catalog (the implicit "default" namespace always
// is).
//
// When another process holds the directory lock, Open logs lockWaitMessage
// once and keeps retrying every openRetryDelay until the lock is released or
// ctx is cancelled, in which case it fails with storage.ErrOpenCancelled. Any
// other open failure is returned immediately.
func Open(ctx context.Context, dir string, names []string, logger *slog.Logger) (*Engine, []*Namespace, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := openDB(ctx, opts, logger)
	if err != nil {
		return nil, nil, err
	}

	cat, err := loadCatalog(dir)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	handles := make([]*Namespace, len(names))
	for i, name := range names {
		rec, ok := cat.lookup(name)
		if !ok {
			db.Close()
			return nil, nil, fmt.Errorf("%w: %q", storage.ErrNamespaceNotFound, name)
		}
		handles[i] = &Namespace{id: rec.ID, name: rec.Name}
	}

	e := &Engine{
		db:      db,
		dir:     dir,
		logger:  logger,
		catalog: cat,
	}
	return e, handles, nil
}

// openDB opens Badger, waiting out directory-lock contention.
func openDB(ctx context.Context, opts badger.Options, logger *slog.Logger) (*badger.DB, error) {
	printLockMessage := true
	for {
		db, err := badger.Open(opts)
		if err == nil {
			return db, nil
		}
		if !isLockContention(err) {
			return nil, fmt.Errorf("open engine at %s: %w", opts.Dir, err)
		}

		if printLockMessage {
			logger.Info(lockWaitMessage, "dir", opts.Dir)
			printLockMessage = false
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", storage.ErrOpenCancelled, ctx.Err())
		case <-time.After(openRetryDelay):
		}
	}
}

// isLockContention reports whether err is Badger's directory-lock failure.
// Badger exports no sentinel for it, so the error text is matched.
func isLockContention(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Cannot acquire directory lock")
}

// CreateNamespace records a new namespace and returns its handle. The catalog
// is persisted before the handle is handed out; a persist failure leaves the
// engine's namespace set unchanged.
func (e *Engine) CreateNamespace(name string) (*Namespace, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.db.IsClosed() {
		return nil, storage.ErrEngineClosed
	}
	if _, ok := e.catalog.lookup(name); ok {
		return nil, fmt.Errorf("%w: %q", storage.ErrNamespaceExists, name)
	}

	rec := storage.NamespaceRecord{ID: e.catalog.nextID, Name: name}
	next := e.catalog.withRecord(rec)
	if err := next.save(e.dir); err != nil {
		return nil, err
	}
	e.catalog = next

	return &Namespace{id: rec.ID, name: rec.Name}, nil
}

// Namespaces returns the names currently recorded in the engine's catalog.
func (e *Engine) Namespaces() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.catalog.names()
}

// Close closes the underlying BadgerDB instance. Closing twice is safe.
func (e *Engine) Close() error {
	if e.db.IsClosed() {
		return nil
	}
	return e.db.Close()
}
