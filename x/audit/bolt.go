package audit

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/iov-one/custody/errors"
)

var boltRoot = []byte("events")

// BoltSink copies published events into a bbolt file, one nested bucket
// per escrow, keyed by the event sequence. External indexers can read the
// file without opening the custody store. Publishing the same event again
// overwrites it, so replays are harmless.
type BoltSink struct {
	db *bolt.DB
}

// OpenBoltSink opens or creates the file at path.
func OpenBoltSink(path string) (*BoltSink, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %s: %s", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltRoot)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create bucket: %s", err)
	}
	return &BoltSink{db: db}, nil
}

// Close releases the file.
func (s *BoltSink) Close() error {
	return s.db.Close()
}

// Publish implements Sink.
func (s *BoltSink) Publish(ctx context.Context, e *Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "json: %s", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(boltRoot).CreateBucketIfNotExists(boltEscrowKey(e.EscrowID))
		if err != nil {
			return err
		}
		return b.Put(boltSeqKey(e.Sequence), raw)
	})
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "bolt: %s", err)
	}
	return nil
}

// Events returns all events of an escrow stored in the file, in order.
func (s *BoltSink) Events(escrowID []byte) ([]*Event, error) {
	var res []*Event
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltRoot).Bucket(boltEscrowKey(escrowID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e Event
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			res = append(res, &e)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "bolt: %s", err)
	}
	return res, nil
}

func boltEscrowKey(escrowID []byte) []byte {
	return []byte(hex.EncodeToString(escrowID))
}

func boltSeqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
