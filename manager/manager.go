// Copyright 2025 Stratum Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/VictoriaMetrics/metrics"
	"github.com/panjf2000/ants/v2"
	"github.com/stratumkv/stratum/storage"
	"github.com/stratumkv/stratum/storage/badger"
	"github.com/stratumkv/stratum/storage/memory"
)

// DefaultStripeCount is the lock partitioning handed to each persistent store
// when Config.StripeCount is zero.
const DefaultStripeCount = 16

// dbDirName is the subdirectory of the base path that holds the engine.
const dbDirName = "stores"

// Config configures a Manager. The operating mode is fixed at construction
// and never switched at runtime.
type Config struct {
	// Path is the base directory for persistent storage. When empty in
	// persistent mode, a temporary directory is created.
	Path string

	// InMemory selects the volatile backend. No directory is touched and no
	// engine is opened.
	InMemory bool

	// StripeCount is the lock partitioning factor for each persistent store.
	// Zero means DefaultStripeCount.
	StripeCount int

	// CollectMetrics registers the engine gauge set at Start and unregisters
	// it at Close. It has no effect in in-memory mode.
	CollectMetrics bool

	// Logger receives the manager's logging. Nil means slog.Default().
	Logger *slog.Logger
}

// Manager owns the engine handle and the store registry for one database.
type Manager struct {
	cfg      Config
	logger   *slog.Logger
	registry *registry

	engine     *badger.Engine
	defaultNS  *badger.Namespace
	metricsSet *metrics.Set
}

// New creates a Manager. Persistent managers must be started before use;
// Start is a no-op in in-memory mode.
func New(cfg Config) *Manager {
	if cfg.StripeCount <= 0 {
		cfg.StripeCount = DefaultStripeCount
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:    cfg,
		logger: logger,
	}
	m.registry = newRegistry(m.newStore)
	return m
}

// Start opens the engine and recovers every store recorded on disk, making
// each immediately available through GetStore without re-creating storage.
// It either succeeds with a fully ready manager or fails with nothing held.
//
// When another process holds the directory lock, Start waits for it; ctx
// cancels the wait.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg.InMemory {
		return nil
	}

	dir, err := m.resolveDirectory()
	if err != nil {
		return err
	}

	names, err := badger.ListNamespaces(dir)
	if err != nil {
		return err
	}

	engine, handles, err := badger.Open(ctx, dir, names, m.logger)
	if err != nil {
		return err
	}

	for i, name := range names {
		if name == storage.ReservedStoreName {
			// The engine's own namespace is retained but never exposed.
			m.defaultNS = handles[i]
			continue
		}
		m.registry.put(name, badger.NewStore(name, handles[i], engine, m.cfg.StripeCount))
	}
	m.engine = engine

	if m.cfg.CollectMetrics {
		m.metricsSet = badger.NewMetricsSet(engine)
		metrics.RegisterSet(m.metricsSet)
	}

	m.logger.Info("store manager started", "dir", dir, "stores", len(names)-1)
	return nil
}

// resolveDirectory materializes and validates the engine directory.
func (m *Manager) resolveDirectory() (string, error) {
	base := m.cfg.Path
	if base == "" {
		tmp, err := os.MkdirTemp("", "stratum-")
		if err != nil {
			return "", fmt.Errorf("%w: create temporary directory: %v", storage.ErrBadBaseDirectory, err)
		}
		m.logger.Warn("no base directory configured, using a temporary directory", "dir", tmp)
		base = tmp
	}

	dir := filepath.Join(base, dbDirName)
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("%w: %s exists and is not a directory", storage.ErrBadBaseDirectory, dir)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: create %s: %v", storage.ErrBadBaseDirectory, dir, err)
		}
	default:
		return "", fmt.Errorf("%w: stat %s: %v", storage.ErrBadBaseDirectory, dir, err)
	}
	return dir, nil
}

// GetStore returns the store named name, creating it on first request.
// Concurrent calls for the same name converge on one store instance; a failed
// creation leaves no trace in the registry.
func (m *Manager) GetStore(name string) (storage.Store, error) {
	if err := storage.ValidateStoreName(name); err != nil {
		return nil, err
	}
	return m.registry.getOrCreate(name)
}

// newStore is the registry's miss path.
func (m *Manager) newStore(name string) (storage.Store, error) {
	if m.cfg.InMemory {
		return memory.New(name), nil
	}
	ns, err := m.engine.CreateNamespace(name)
	if err != nil {
		return nil, fmt.Errorf("create namespace %q: %w", name, err)
	}
	return badger.NewStore(name, ns, m.engine, m.cfg.StripeCount), nil
}

// DeleteEverything wipes the contents of every currently-open store whose
// name is not in skip. Stores that exist on disk but were never requested in
// this process lifetime are not touched. Per-store failures are joined into
// one error; every store still gets its wipe attempt.
func (m *Manager) DeleteEverything(skip ...string) error {
	skipSet := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipSet[name] = struct{}{}
	}

	stores := m.registry.snapshot()

	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		return fmt.Errorf("create wipe pool: %w", err)
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	capture := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for name, store := range stores {
		if _, ok := skipSet[name]; ok {
			continue
		}
		name, store := name, store
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := store.DeleteAllValues(); err != nil {
				capture(fmt.Errorf("delete values of store %q: %w", name, err))
			}
		}); err != nil {
			wg.Done()
			capture(fmt.Errorf("wipe store %q: %w", name, err))
		}
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Close releases everything the manager owns. Every resource gets a close
// attempt even when earlier ones fail; captured failures come back as one
// aggregate error. Metrics de-registration happens first and is best-effort.
func (m *Manager) Close() error {
	if m.metricsSet != nil {
		metrics.UnregisterSet(m.metricsSet)
		m.metricsSet = nil
	}

	var errs []error
	m.registry.invalidateAll(func(err error) {
		errs = append(errs, err)
	})

	if m.defaultNS != nil {
		if err := m.defaultNS.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close default namespace handle: %w", err))
		}
		m.defaultNS = nil
	}
	if m.engine != nil {
		if err := m.engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine: %w", err))
		}
		m.engine = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close store manager: %w", errors.Join(errs...))
	}
	return nil
}

// StoreNames returns the names recorded in the engine's catalog, reserved
// namespace excluded. In in-memory mode it lists the currently-open stores
// instead.
func (m *Manager) StoreNames() []string {
	var names []string
	if m.cfg.InMemory || m.engine == nil {
		for name := range m.registry.snapshot() {
			names = append(names, name)
		}
		return names
	}
	for _, name := range m.engine.Namespaces() {
		if name == storage.ReservedStoreName {
			continue
		}
		names = append(names, name)
	}
	return names
}
