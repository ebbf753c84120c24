package store

import (
	"sync"
)

// SyncStore guards a store that is not safe for concurrent use with a
// read-write mutex, so that many transactions running in parallel can share
// it as their common backing store.
//
// Iterators are materialized while the read lock is held and never keep
// the lock after they are returned. Batches created by NewBatch apply all
// their operations while holding the write lock once, so a reader never
// observes a half written batch.
type SyncStore struct {
	mu   sync.RWMutex
	back KVStore
}

var _ CacheableKVStore = (*SyncStore)(nil)

// NewSyncStore wraps given store.
func NewSyncStore(back KVStore) *SyncStore {
	return &SyncStore{back: back}
}

// Get implements ReadOnlyKVStore.
func (s *SyncStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.back.Get(key)
}

// Has implements ReadOnlyKVStore.
func (s *SyncStore) Has(key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.back.Has(key)
}

// Iterator implements ReadOnlyKVStore.
func (s *SyncStore) Iterator(start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	models, err := ReadAll(it)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(models), nil
}

// ReverseIterator implements ReadOnlyKVStore.
func (s *SyncStore) ReverseIterator(start, end []byte) (Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, err := s.back.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	models, err := ReadAll(it)
	if err != nil {
		return nil, err
	}
	return NewSliceIterator(models), nil
}

// Set implements SetDeleter.
func (s *SyncStore) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back.Set(key, value)
}

// Delete implements SetDeleter.
func (s *SyncStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back.Delete(key)
}

// NewBatch returns a batch that writes all collected operations under a
// single write lock.
func (s *SyncStore) NewBatch() Batch {
	return &syncBatch{store: s}
}

// CacheWrap returns a btree cache on top of this store. Writing the cache
// wrap applies all changes atomically with respect to other users of the
// store.
func (s *SyncStore) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(s, s.NewBatch(), nil)
}

// Locked runs fn while holding the write lock, giving it exclusive access
// to the wrapped store. This is used to commit the underlying store
// without interleaving with batch writes.
func (s *SyncStore) Locked(fn func(KVStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.back)
}

type syncBatch struct {
	store *SyncStore
	ops   []Op
}

func (b *syncBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *syncBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

func (b *syncBatch) Write() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	// Stage through the wrapped store's own batch so that a persistent
	// backend gets a single atomic write.
	out := b.store.back.NewBatch()
	for _, op := range b.ops {
		if err := op.Apply(out); err != nil {
			return err
		}
	}
	b.ops = nil
	return out.Write()
}
