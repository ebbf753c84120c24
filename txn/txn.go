/*
Package txn runs functions as serializable transactions over a shared
key value store.

Every transaction declares the keys it is going to modify. Keys are locked
in lexicographical order, so two transactions declaring overlapping keys
never deadlock and always execute one after the other. Transactions with
disjoint keys run in parallel.

All writes of a transaction go to a cache wrap of the store. The cache is
written atomically when the transaction function returns no error and
discarded otherwise, so a failed transaction leaves no trace.
*/
package txn

import (
	"context"
	"sort"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Executor runs transactions against a store.
type Executor struct {
	db    custody.CacheableKVStore
	locks *keyLocks
}

// NewExecutor returns an executor using given store. The store must be
// safe for concurrent use, for example store.SyncStore.
func NewExecutor(db custody.CacheableKVStore) *Executor {
	return &Executor{
		db:    db,
		locks: newKeyLocks(),
	}
}

// Update executes fn in a transaction holding locks for all given keys.
//
// If fn returns an error or panics, all changes are discarded and the error
// is returned. Otherwise changes are written and all functions registered
// with Tx.AfterCommit are called, in registration order, before the locks
// are released.
func (e *Executor) Update(ctx context.Context, keys [][]byte, fn func(tx *Tx) error) (err error) {
	tx := &Tx{
		ctx:  ctx,
		exec: e,
		held: make(map[string]struct{}),
	}
	defer tx.unlockAll()

	if err := tx.Lock(keys...); err != nil {
		return err
	}

	tx.cache = e.db.CacheWrap()
	if err := run(tx, fn); err != nil {
		tx.cache.Discard()
		return err
	}
	if err := tx.cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}

	for _, hook := range tx.afterCommit {
		hook(ctx)
	}
	return nil
}

func run(tx *Tx, fn func(tx *Tx) error) (err error) {
	defer errors.Recover(&err)
	return fn(tx)
}

// View runs fn with read access to the store. No locks are taken, fn can
// observe any committed state but never a partially written transaction.
func (e *Executor) View(ctx context.Context, fn func(db custody.ReadOnlyKVStore) error) (err error) {
	defer errors.Recover(&err)
	return fn(e.db)
}

// Tx is a running transaction. It must not be used after the function
// passed to Update returns.
type Tx struct {
	ctx         context.Context
	exec        *Executor
	cache       custody.KVCacheWrap
	held        map[string]struct{}
	order       []string
	afterCommit []func(context.Context)
}

// Context returns the context the transaction was started with.
func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Store returns the transaction view of the database. All writes are
// isolated until commit.
func (tx *Tx) Store() custody.KVStore {
	return tx.cache
}

// Lock acquires locks for additional keys. Keys already held are ignored.
//
// To avoid deadlocks, keys of one kind must always be acquired after keys
// of another kind, never the reverse. Escrow keys are locked when the
// transaction starts and wallet keys, if any, later with a single call.
func (tx *Tx) Lock(keys ...[]byte) error {
	wanted := make([]string, 0, len(keys))
	for _, k := range keys {
		if len(k) == 0 {
			return errors.Wrap(errors.ErrHuman, "cannot lock an empty key")
		}
		s := string(k)
		if _, ok := tx.held[s]; ok {
			continue
		}
		wanted = append(wanted, s)
	}
	sort.Strings(wanted)

	for i, k := range wanted {
		if i > 0 && wanted[i-1] == k {
			continue
		}
		if err := tx.exec.locks.lock(tx.ctx, k); err != nil {
			return errors.Wrapf(errors.ErrInvalidState, "lock %q: %s", k, err)
		}
		tx.held[k] = struct{}{}
		tx.order = append(tx.order, k)
	}
	return nil
}

// AfterCommit registers a function that is called once the transaction
// was successfully written. It is not called if the transaction fails.
func (tx *Tx) AfterCommit(fn func(context.Context)) {
	tx.afterCommit = append(tx.afterCommit, fn)
}

func (tx *Tx) unlockAll() {
	for i := len(tx.order) - 1; i >= 0; i-- {
		tx.exec.locks.unlock(tx.order[i])
	}
	tx.order = nil
	tx.held = nil
}
