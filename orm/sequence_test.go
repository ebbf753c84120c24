package orm

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()

	cases := []struct {
		bucket     string
		name       string
		init       uint64
		increments uint64
	}{
		0: {"esc", "id", 0, 22},
		1: {"esc", "other", 0, 11},
		2: {"esc", "id", 22, 18},
		3: {"evt", "id", 0, 77},
		4: {"esc", "other", 11, 248},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			s := NewSequence(tc.bucket, tc.name)
			orig, err := db.Get(s.Key())
			require.NoError(t, err)

			var val uint64
			for i := uint64(0); i < tc.increments; i++ {
				val, err = s.NextInt(db)
				require.NoError(t, err)
			}
			assert.Equal(t, tc.init+tc.increments, val)

			// make sure final value is bigger than original value
			// if we use the raw bytes to index stuff
			last, err := db.Get(s.Key())
			require.NoError(t, err)
			assert.Equal(t, 1, bytes.Compare(last, orig))

			latest, err := s.Latest(db)
			require.NoError(t, err)
			assert.Equal(t, val, latest)
		})
	}
}

func TestSequenceOverflow(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("esc", "id")
	require.NoError(t, db.Set(s.Key(), EncodeSequence(^uint64(0))))

	_, err := s.NextVal(db)
	assert.True(t, errors.ErrOverflow.Is(err))
}

func TestDecodeSequenceRejectsGarbage(t *testing.T) {
	_, err := DecodeSequence([]byte{1, 2, 3})
	assert.True(t, errors.ErrInput.Is(err))
}
