package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stratumkv/stratum/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutGetDelete(t *testing.T) {
	store := New("alpha")
	assert.Equal(t, "alpha", store.Name())

	_, found, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put([]byte("k"), []byte("v1")))
	value, found, err := store.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), value)

	require.NoError(t, store.Delete([]byte("k")))
	_, found, err = store.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreValueAliasing(t *testing.T) {
	store := New("alpha")

	value := []byte("original")
	require.NoError(t, store.Put([]byte("k"), value))
	value[0] = 'X'

	got, _, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got, "mutating the caller's slice must not reach the store")

	got[0] = 'Y'
	again, _, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again, "mutating a returned slice must not reach the store")
}

func TestStoreCompareAndPut(t *testing.T) {
	store := New("alpha")

	swapped, err := store.CompareAndPut([]byte("k"), nil, []byte("v1"))
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = store.CompareAndPut([]byte("k"), nil, []byte("other"))
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = store.CompareAndPut([]byte("k"), []byte("bogus"), []byte("v2"))
	require.NoError(t, err)
	assert.False(t, swapped)

	swapped, err = store.CompareAndPut([]byte("k"), []byte("v1"), []byte("v2"))
	require.NoError(t, err)
	assert.True(t, swapped)

	value, _, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), value)
}

func TestStoreCompareAndPut_FailureLeavesNoEntry(t *testing.T) {
	store := New("alpha")

	swapped, err := store.CompareAndPut([]byte("k"), []byte("expected"), []byte("v"))
	require.NoError(t, err)
	assert.False(t, swapped)

	_, found, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreCompareAndPut_SingleWinner(t *testing.T) {
	store := New("alpha")

	const goroutines = 16

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < goroutines; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			swapped, err := store.CompareAndPut([]byte("slot"), nil, fmt.Appendf(nil, "winner-%d", i))
			assert.NoError(t, err)
			if swapped {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestStoreDeleteAllValues(t *testing.T) {
	store := New("alpha")
	other := New("bravo")

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Put(fmt.Appendf(nil, "k%d", i), []byte("v")))
		require.NoError(t, other.Put(fmt.Appendf(nil, "k%d", i), []byte("v")))
	}

	require.NoError(t, store.DeleteAllValues())

	_, found, err := store.Get([]byte("k3"))
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = other.Get([]byte("k3"))
	require.NoError(t, err)
	assert.True(t, found, "stores are independent containers")
}

func TestStoreClose(t *testing.T) {
	store := New("alpha")

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, _, err := store.Get([]byte("k"))
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
	assert.ErrorIs(t, store.Put([]byte("k"), []byte("v")), storage.ErrStoreClosed)
	assert.ErrorIs(t, store.Delete([]byte("k")), storage.ErrStoreClosed)
	assert.ErrorIs(t, store.DeleteAllValues(), storage.ErrStoreClosed)
	_, err = store.CompareAndPut([]byte("k"), nil, []byte("v"))
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
}
