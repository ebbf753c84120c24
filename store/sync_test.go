package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncStoreConcurrentCacheWraps(t *testing.T) {
	db := NewSyncStore(MemStore())

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache := db.CacheWrap()
			key := []byte(fmt.Sprintf("key-%02d", n))
			if err := cache.Set(key, []byte{byte(n)}); err != nil {
				t.Error(err)
				return
			}
			if err := cache.Write(); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	it, err := db.Iterator(nil, nil)
	require.NoError(t, err)
	models, err := ReadAll(it)
	require.NoError(t, err)
	assert.Len(t, models, workers)
}

func TestSyncStoreDiscardLeavesNoTrace(t *testing.T) {
	db := NewSyncStore(MemStore())
	cache := db.CacheWrap()
	require.NoError(t, cache.Set([]byte("k"), []byte("v")))
	cache.Discard()

	has, err := db.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSyncStoreLocked(t *testing.T) {
	db := NewSyncStore(MemStore())
	require.NoError(t, db.Set([]byte("k"), []byte("v")))

	err := db.Locked(func(kv KVStore) error {
		val, err := kv.Get([]byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), val)
		return nil
	})
	require.NoError(t, err)
}
