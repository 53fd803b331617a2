package badger

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stratumkv/stratum/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureHandler records slog messages so tests can count them.
type captureHandler struct {
	mu       sync.Mutex
	messages []string
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) count(message string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.messages {
		if m == message {
			n++
		}
	}
	return n
}

func openTestEngine(t *testing.T, dir string) (*Engine, []*Namespace) {
	t.Helper()
	names, err := ListNamespaces(dir)
	require.NoError(t, err)
	engine, handles, err := Open(context.Background(), dir, names, slog.Default())
	require.NoError(t, err)
	return engine, handles
}

func TestOpen_FreshDirectory(t *testing.T) {
	dir := t.TempDir()
	engine, handles := openTestEngine(t, dir)
	defer engine.Close()

	require.Len(t, handles, 1)
	assert.Equal(t, storage.ReservedStoreName, handles[0].Name())
}

func TestOpen_UnknownNamespace(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Open(context.Background(), dir, []string{"never-created"}, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNamespaceNotFound)
}

func TestCreateNamespace(t *testing.T) {
	dir := t.TempDir()
	engine, _ := openTestEngine(t, dir)
	defer engine.Close()

	ns, err := engine.CreateNamespace("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", ns.Name())

	_, err = engine.CreateNamespace("alpha")
	assert.ErrorIs(t, err, storage.ErrNamespaceExists)

	assert.Equal(t, []string{storage.ReservedStoreName, "alpha"}, engine.Namespaces())
}

func TestCreateNamespace_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	engine, _ := openTestEngine(t, dir)
	_, err := engine.CreateNamespace("alpha")
	require.NoError(t, err)
	_, err = engine.CreateNamespace("bravo")
	require.NoError(t, err)
	require.NoError(t, engine.Close())

	names, err := ListNamespaces(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.ReservedStoreName, "alpha", "bravo"}, names)

	engine, handles := openTestEngine(t, dir)
	defer engine.Close()
	require.Len(t, handles, 3)
	assert.Equal(t, "alpha", handles[1].Name())
	assert.Equal(t, "bravo", handles[2].Name())
}

func TestCreateNamespace_ClosedEngine(t *testing.T) {
	dir := t.TempDir()
	engine, _ := openTestEngine(t, dir)
	require.NoError(t, engine.Close())

	_, err := engine.CreateNamespace("alpha")
	assert.ErrorIs(t, err, storage.ErrEngineClosed)
}

func TestOpen_WaitsForDirectoryLock(t *testing.T) {
	dir := t.TempDir()

	holder, _ := openTestEngine(t, dir)

	handler := &captureHandler{}
	logger := slog.New(handler)

	type result struct {
		engine *Engine
		err    error
	}
	done := make(chan result, 1)
	go func() {
		engine, _, err := Open(context.Background(), dir, []string{storage.ReservedStoreName}, logger)
		done <- result{engine: engine, err: err}
	}()

	// The second open must be stuck waiting, not failing.
	select {
	case r := <-done:
		t.Fatalf("open finished while the lock was held: %v", r.err)
	case <-time.After(400 * time.Millisecond):
	}

	require.NoError(t, holder.Close())

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.NoError(t, r.engine.Close())
	case <-time.After(10 * time.Second):
		t.Fatal("open did not finish after the lock was released")
	}

	assert.Equal(t, 1, handler.count(lockWaitMessage), "lock notice must be logged exactly once")
}

func TestOpen_CancelledWhileWaiting(t *testing.T) {
	dir := t.TempDir()

	holder, _ := openTestEngine(t, dir)
	defer holder.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, _, err := Open(ctx, dir, []string{storage.ReservedStoreName}, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrOpenCancelled)
}

func TestOpen_OtherFailuresAreImmediate(t *testing.T) {
	// A file where the directory should be is not lock contention and must
	// not be retried.
	dir := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(dir, []byte("occupied"), 0o644))

	start := time.Now()
	_, _, err := Open(context.Background(), dir, []string{storage.ReservedStoreName}, slog.Default())
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrOpenCancelled)
	assert.Less(t, time.Since(start), 5*time.Second)
}
