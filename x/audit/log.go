package audit

import (
	"context"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	"github.com/iov-one/custody/txn"
)

// Log appends events to the store and publishes them once they are
// committed.
type Log struct {
	events orm.ModelBucket
	signer crypto.Signer
	sink   Sink
}

// Option configures a Log.
type Option func(*Log)

// WithSigner makes the log sign every appended event.
func WithSigner(s crypto.Signer) Option {
	return func(l *Log) { l.signer = s }
}

// WithSink sets the sink committed events are published to.
func WithSink(s Sink) Option {
	return func(l *Log) { l.sink = s }
}

// NewLog returns a log. Without a sink events are only stored.
func NewLog(opts ...Option) *Log {
	l := &Log{events: orm.NewModelBucket("evt")}
	for _, fn := range opts {
		fn(l)
	}
	return l
}

// PublicKey returns the key signatures of this log can be verified with,
// or nil if events are not signed.
func (l *Log) PublicKey() crypto.PublicKey {
	if l.signer == nil {
		return nil
	}
	return l.signer.PublicKey()
}

// Append assigns the next sequence number of the escrow to e, signs it if
// configured to and stores it within the transaction. The event is
// published after the transaction commits. A failure to publish is logged
// and does not affect the committed state.
func (l *Log) Append(tx *txn.Tx, e *Event) error {
	db := tx.Store()

	last, err := l.lastSequence(db, e.EscrowID)
	if err != nil {
		return errors.Wrap(err, "last event")
	}
	e.Schema = 1
	e.Sequence = last + 1
	e.Signature = nil
	if l.signer != nil {
		msg, err := SignBytes(e)
		if err != nil {
			return err
		}
		if e.Signature, err = l.signer.Sign(msg); err != nil {
			return errors.Wrap(err, "sign event")
		}
	}
	if _, err := l.events.Put(db, e.key(), e); err != nil {
		return errors.Wrap(err, "store event")
	}

	if l.sink != nil {
		published := *e
		tx.AfterCommit(func(ctx context.Context) {
			if err := l.sink.Publish(ctx, &published); err != nil {
				custody.GetLogger(ctx).Error("cannot publish audit event",
					"escrow", custody.Address(published.EscrowID),
					"sequence", published.Sequence,
					"type", published.Type,
					"err", err)
			}
		})
	}
	return nil
}

func (l *Log) lastSequence(db custody.ReadOnlyKVStore, escrowID []byte) (uint64, error) {
	if len(escrowID) == 0 {
		return 0, errors.Wrap(errors.ErrEmpty, "escrow ID")
	}
	it, err := l.events.PrefixScan(db, escrowID, true)
	if err != nil {
		return 0, err
	}
	defer it.Release()

	var last Event
	switch _, err := it.LoadNext(&last); {
	case errors.ErrIteratorDone.Is(err):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return last.Sequence, nil
}

// Events returns the events of an escrow with a sequence number greater
// than since, in order. Use since 0 to read the whole log.
func (l *Log) Events(db custody.ReadOnlyKVStore, escrowID []byte, since uint64) ([]*Event, error) {
	if len(escrowID) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "escrow ID")
	}
	it, err := l.events.PrefixScan(db, escrowID, false)
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var res []*Event
	for {
		var e Event
		switch _, err := it.LoadNext(&e); {
		case errors.ErrIteratorDone.Is(err):
			return res, nil
		case err != nil:
			return nil, err
		}
		if e.Sequence > since {
			res = append(res, &e)
		}
	}
}
