package orm

import (
	"regexp"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

// Model is impelemented by any entity that can be stored using ModelBucket.
type Model interface {
	custody.Persistent
	custody.Validater
}

// ModelBucket stores models of a single kind under a common key prefix.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary key. Result is loaded into given destination model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	One(db custody.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists,
	// ErrNotFound otherwise.
	Has(db custody.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. Before inserting into the
	// database, model is validated using its Validate method.
	// If the key is nil or zero length then a sequence generator is used
	// to create a unique key value. Using a key generator is not
	// supported by buckets created without WithIDSequence.
	// Key is returned.
	Put(db custody.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db custody.KVStore, key []byte) error

	// PrefixScan returns an iterator over all entities whose key starts
	// with given prefix. A nil prefix iterates over the whole bucket.
	PrefixScan(db custody.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error)

	// DBKey returns the full database key an entity is stored under.
	DBKey(key []byte) []byte
}

// ModelIterator loads models one by one. LoadNext returns ErrIteratorDone
// once all elements were read.
type ModelIterator interface {
	LoadNext(dest Model) (key []byte, err error)
	Release()
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIDSequence configures the bucket to use given sequence instance for
// generating ID.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = &s
	}
}

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// NewModelBucket returns a ModelBucket instance storing all entities under
// the "<name>:" prefix. The name must be unique within the application.
func NewModelBucket(name string, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic("invalid bucket name: " + name)
	}
	mb := &modelBucket{
		prefix: []byte(name + ":"),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	prefix []byte
	idSeq  *Sequence
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) DBKey(key []byte) []byte {
	res := make([]byte, 0, len(mb.prefix)+len(key))
	res = append(res, mb.prefix...)
	return append(res, key...)
}

func (mb *modelBucket) One(db custody.ReadOnlyKVStore, key []byte, dest Model) error {
	raw, err := db.Get(mb.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(errors.ErrModel, "unmarshal %T: %s", dest, err)
	}
	return nil
}

func (mb *modelBucket) Has(db custody.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrNotFound, "empty key")
	}
	ok, err := db.Has(mb.DBKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.ErrNotFound
	}
	return nil
}

func (mb *modelBucket) Put(db custody.KVStore, key []byte, m Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if len(key) == 0 {
		if mb.idSeq == nil {
			return nil, errors.Wrap(errors.ErrHuman, "bucket has no ID sequence")
		}
		var err error
		key, err = mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "marshal %T: %s", m, err)
	}
	if err := db.Set(mb.DBKey(key), raw); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return key, nil
}

func (mb *modelBucket) Delete(db custody.KVStore, key []byte) error {
	if err := mb.Has(db, key); err != nil {
		return err
	}
	if err := db.Delete(mb.DBKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (mb *modelBucket) PrefixScan(db custody.ReadOnlyKVStore, prefix []byte, reverse bool) (ModelIterator, error) {
	var (
		rawIter custody.Iterator
		err     error
	)
	start, end := prefixRange(mb.DBKey(prefix))
	if reverse {
		rawIter, err = db.ReverseIterator(start, end)
	} else {
		rawIter, err = db.Iterator(start, end)
	}
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "prefix scan: %s", err)
	}
	return &modelIterator{iterator: rawIter, bucketPrefix: mb.prefix}, nil
}

type modelIterator struct {
	// this is the raw KVStoreIterator
	iterator custody.Iterator
	// this is the bucketPrefix to strip from each key
	bucketPrefix []byte
}

func (i *modelIterator) LoadNext(dest Model) ([]byte, error) {
	if !i.iterator.Valid() {
		return nil, errors.ErrIteratorDone
	}
	key := i.iterator.Key()[len(i.bucketPrefix):]
	if err := dest.Unmarshal(i.iterator.Value()); err != nil {
		return nil, errors.Wrapf(errors.ErrModel, "unmarshal %T: %s", dest, err)
	}
	// Copy before moving on, the iterator may reuse the buffer.
	key = append([]byte(nil), key...)
	if err := i.iterator.Next(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return key, nil
}

func (i *modelIterator) Release() {
	i.iterator.Close()
}

// prefixRange turns a prefix into (start, end) to create
// and iterator
func prefixRange(prefix []byte) ([]byte, []byte) {
	// special case: no prefix is whole range
	if len(prefix) == 0 {
		return nil, nil
	}

	// copy the prefix and update last byte
	end := make([]byte, len(prefix))
	copy(end, prefix)
	l := len(end) - 1
	end[l]++

	// wait, what if that overflowed?....
	for end[l] == 0 && l > 0 {
		l--
		end[l]++
	}

	// okay, funny guy, you gave us FFF, no end to this range...
	if l == 0 && end[0] == 0 {
		end = nil
	}
	return prefix, end
}
