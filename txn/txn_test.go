package txn

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

func TestUpdateCommitsOrDiscards(t *testing.T) {
	db := store.NewSyncStore(store.MemStore())
	exec := NewExecutor(db)
	ctx := context.Background()

	err := exec.Update(ctx, [][]byte{[]byte("a")}, func(tx *Tx) error {
		return tx.Store().Set([]byte("a"), []byte("1"))
	})
	require.NoError(t, err)

	err = exec.Update(ctx, [][]byte{[]byte("a")}, func(tx *Tx) error {
		if err := tx.Store().Set([]byte("a"), []byte("2")); err != nil {
			return err
		}
		return errors.Wrap(errors.ErrInvalidState, "abort")
	})
	assert.True(t, errors.ErrInvalidState.Is(err))

	val, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), val)
}

func TestUpdateRecoversPanic(t *testing.T) {
	db := store.NewSyncStore(store.MemStore())
	exec := NewExecutor(db)

	err := exec.Update(context.Background(), [][]byte{[]byte("p")}, func(tx *Tx) error {
		_ = tx.Store().Set([]byte("p"), []byte("x"))
		panic("boom")
	})
	assert.True(t, errors.ErrPanic.Is(err))

	has, err := db.Has([]byte("p"))
	require.NoError(t, err)
	assert.False(t, has)

	// The lock must be released after a panic.
	err = exec.Update(context.Background(), [][]byte{[]byte("p")}, func(tx *Tx) error { return nil })
	assert.NoError(t, err)
}

func TestAfterCommit(t *testing.T) {
	exec := NewExecutor(store.NewSyncStore(store.MemStore()))
	ctx := context.Background()

	var calls []int
	err := exec.Update(ctx, [][]byte{[]byte("k")}, func(tx *Tx) error {
		tx.AfterCommit(func(context.Context) { calls = append(calls, 1) })
		tx.AfterCommit(func(context.Context) { calls = append(calls, 2) })
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)

	err = exec.Update(ctx, [][]byte{[]byte("k")}, func(tx *Tx) error {
		tx.AfterCommit(func(context.Context) { calls = append(calls, 3) })
		return errors.ErrInput
	})
	assert.Error(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}

// TestSerializableCounter increments the same counter from many
// goroutines. Without per key serialization updates would be lost.
func TestSerializableCounter(t *testing.T) {
	db := store.NewSyncStore(store.MemStore())
	exec := NewExecutor(db)
	key := []byte("counter")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := exec.Update(context.Background(), [][]byte{key}, func(tx *Tx) error {
				n, err := readCounter(tx.Store(), key)
				if err != nil {
					return err
				}
				raw := make([]byte, 8)
				binary.BigEndian.PutUint64(raw, n+1)
				return tx.Store().Set(key, raw)
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	n, err := readCounter(db, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(workers), n)
}

func readCounter(db custody.ReadOnlyKVStore, key []byte) (uint64, error) {
	raw, err := db.Get(key)
	if err != nil || raw == nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

func TestLockHonoursContext(t *testing.T) {
	exec := NewExecutor(store.NewSyncStore(store.MemStore()))
	key := []byte("busy")

	holding := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = exec.Update(context.Background(), [][]byte{key}, func(tx *Tx) error {
			close(holding)
			<-done
			return nil
		})
	}()
	<-holding

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := exec.Update(ctx, [][]byte{key}, func(tx *Tx) error {
		t.Fatal("must not run")
		return nil
	})
	assert.Error(t, err)
	close(done)
}

func TestLockAdditionalKeys(t *testing.T) {
	exec := NewExecutor(store.NewSyncStore(store.MemStore()))
	err := exec.Update(context.Background(), [][]byte{[]byte("esc:1")}, func(tx *Tx) error {
		require.NoError(t, tx.Lock([]byte("wallet:b"), []byte("wallet:a"), []byte("esc:1")))
		assert.Len(t, tx.order, 3)
		return tx.Lock(nil)
	})
	assert.True(t, errors.ErrHuman.Is(err))
	assert.Empty(t, exec.locks.locks)
}

func TestView(t *testing.T) {
	db := store.NewSyncStore(store.MemStore())
	require.NoError(t, db.Set([]byte("v"), []byte("1")))
	exec := NewExecutor(db)

	err := exec.View(context.Background(), func(r custody.ReadOnlyKVStore) error {
		val, err := r.Get([]byte("v"))
		assert.Equal(t, []byte("1"), val)
		return err
	})
	assert.NoError(t, err)
}
