package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/custodytest"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/iov-one/custody/txn"
)

func newEvent(escrowID []byte, typ Type) *Event {
	return &Event{
		EscrowID:  escrowID,
		Type:      typ,
		OrderID:   []byte("order-1"),
		Amount:    100,
		AssetType: "IOV",
		Time:      custody.Timestamp(1500000000000),
		Actor:     custodytest.NewCondition().Address(),
		Status:    "Funded",
	}
}

func TestLogAppendAndReplay(t *testing.T) {
	db := store.NewSyncStore(store.MemStore())
	exec := txn.NewExecutor(db)
	ctx := context.Background()

	var published []*Event
	log := NewLog(WithSink(SinkFunc(func(ctx context.Context, e *Event) error {
		published = append(published, e)
		return nil
	})))

	first := custodytest.SequenceID(1)
	second := custodytest.SequenceID(2)
	types := []Type{TypeCreated, TypeDeposited, TypeReleased}
	for _, typ := range types {
		err := exec.Update(ctx, [][]byte{first}, func(tx *txn.Tx) error {
			return log.Append(tx, newEvent(first, typ))
		})
		require.NoError(t, err)
	}
	err := exec.Update(ctx, [][]byte{second}, func(tx *txn.Tx) error {
		return log.Append(tx, newEvent(second, TypeCreated))
	})
	require.NoError(t, err)

	events, err := log.Events(db, first, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, e := range events {
		assert.Equal(t, uint64(i+1), e.Sequence)
		assert.Equal(t, types[i], e.Type)
	}

	events, err = log.Events(db, first, 2)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, TypeReleased, events[0].Type)

	events, err = log.Events(db, second, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Sequence)

	require.Len(t, published, 4)
	assert.Equal(t, TypeCreated, published[0].Type)
	assert.Equal(t, TypeReleased, published[2].Type)
	assert.Equal(t, second, published[3].EscrowID)
}

func TestFailedTransactionLeavesNoEvent(t *testing.T) {
	db := store.NewSyncStore(store.MemStore())
	exec := txn.NewExecutor(db)

	var calls int
	log := NewLog(WithSink(SinkFunc(func(context.Context, *Event) error {
		calls++
		return nil
	})))

	id := custodytest.SequenceID(9)
	err := exec.Update(context.Background(), [][]byte{id}, func(tx *txn.Tx) error {
		if err := log.Append(tx, newEvent(id, TypeCreated)); err != nil {
			return err
		}
		return errors.Wrap(errors.ErrInvalidState, "abort")
	})
	require.True(t, errors.ErrInvalidState.Is(err))

	events, err := log.Events(db, id, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 0, calls)
}

func TestInvalidEventRejected(t *testing.T) {
	exec := txn.NewExecutor(store.NewSyncStore(store.MemStore()))
	id := custodytest.SequenceID(1)
	err := exec.Update(context.Background(), [][]byte{id}, func(tx *txn.Tx) error {
		e := newEvent(id, "escrow.unknown")
		return NewLog().Append(tx, e)
	})
	assert.True(t, errors.ErrModel.Is(err))
}

func TestSignedEvents(t *testing.T) {
	db := store.NewSyncStore(store.MemStore())
	exec := txn.NewExecutor(db)
	key := custodytest.NewKey()
	log := NewLog(WithSigner(key))
	assert.Equal(t, key.PublicKey(), log.PublicKey())

	id := custodytest.SequenceID(4)
	err := exec.Update(context.Background(), [][]byte{id}, func(tx *txn.Tx) error {
		return log.Append(tx, newEvent(id, TypeDisputed))
	})
	require.NoError(t, err)

	events, err := log.Events(db, id, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	e := events[0]
	require.NotEmpty(t, e.Signature)
	assert.NoError(t, VerifySignature(log.PublicKey(), e))

	tampered := *e
	tampered.Amount++
	assert.True(t, errors.ErrUnauthorized.Is(VerifySignature(log.PublicKey(), &tampered)))

	other := custodytest.NewKey().PublicKey()
	assert.True(t, errors.ErrUnauthorized.Is(VerifySignature(other, e)))

	assert.Nil(t, NewLog().PublicKey())
}

func TestSignBytesAreCanonical(t *testing.T) {
	e := newEvent(custodytest.SequenceID(1), TypeCreated)
	e.Sequence = 1
	msg, err := SignBytes(e)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(msg, []byte(SignDomain+"{")))

	// Signature never takes part in the signed message.
	e.Signature = []byte("whatever")
	again, err := SignBytes(e)
	require.NoError(t, err)
	assert.Equal(t, msg, again)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg[len(SignDomain):], &decoded))
	assert.Equal(t, "escrow.created", decoded["type"])
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)
	ctx := context.Background()

	id := custodytest.SequenceID(1)
	for i := uint64(1); i <= 3; i++ {
		e := newEvent(id, TypeCreated)
		e.Sequence = i
		require.NoError(t, sink.Publish(ctx, e))
	}

	var lines int
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		lines++
		assert.Equal(t, uint64(lines), e.Sequence)
	}
	assert.Equal(t, 3, lines)
}

func TestBoltSink(t *testing.T) {
	sink, err := OpenBoltSink(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer sink.Close()
	ctx := context.Background()

	id := custodytest.SequenceID(5)
	for i := uint64(1); i <= 2; i++ {
		e := newEvent(id, TypeCreated)
		e.Sequence = i
		require.NoError(t, sink.Publish(ctx, e))
	}
	// Publishing again is idempotent.
	e := newEvent(id, TypeCreated)
	e.Sequence = 2
	require.NoError(t, sink.Publish(ctx, e))

	events, err := sink.Events(id)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(1), events[0].Sequence)
	assert.Equal(t, e.Actor, events[1].Actor)

	none, err := sink.Events(custodytest.SequenceID(6))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMultiSink(t *testing.T) {
	var got int
	ok := SinkFunc(func(context.Context, *Event) error {
		got++
		return nil
	})
	failing := SinkFunc(func(context.Context, *Event) error {
		return errors.Wrap(errors.ErrDatabase, "down")
	})

	err := MultiSink{failing, ok, ok}.Publish(context.Background(), newEvent(custodytest.SequenceID(1), TypeCreated))
	assert.True(t, errors.ErrDatabase.Is(err))
	assert.Equal(t, 2, got)

	assert.NoError(t, MultiSink{ok}.Publish(context.Background(), newEvent(custodytest.SequenceID(1), TypeCreated)))
}
