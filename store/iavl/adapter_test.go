package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/custody/store"
)

func TestCommitStoreSurvivesReload(t *testing.T) {
	dir, err := ioutil.TempDir("", "custody-iavl")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s, err := NewCommitStore(dir, "test")
	require.NoError(t, err)
	require.NoError(t, s.LoadLatestVersion())

	cache := s.CacheWrap()
	require.NoError(t, cache.Set([]byte("a"), []byte("1")))
	require.NoError(t, cache.Set([]byte("b"), []byte("2")))
	require.NoError(t, cache.Write())

	id, err := s.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)
	assert.NotEmpty(t, id.Hash)

	latest, err := s.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, id, latest)
}

func TestCommitStoreIterators(t *testing.T) {
	s := MockCommitStore()
	for _, k := range []string{"k1", "k2", "k3", "x"} {
		require.NoError(t, s.Set([]byte(k), []byte("v"+k)))
	}

	it, err := s.Iterator([]byte("k"), []byte("l"))
	require.NoError(t, err)
	models, err := store.ReadAll(it)
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, []byte("k1"), models[0].Key)

	rit, err := s.ReverseIterator([]byte("k"), []byte("l"))
	require.NoError(t, err)
	models, err = store.ReadAll(rit)
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, []byte("k3"), models[0].Key)
}

func TestCommitStoreDelete(t *testing.T) {
	s := MockCommitStore()
	require.NoError(t, s.Set([]byte("gone"), []byte("soon")))
	has, err := s.Has([]byte("gone"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Delete([]byte("gone")))
	val, err := s.Get([]byte("gone"))
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestCommitStoreReopen(t *testing.T) {
	dir, err := ioutil.TempDir("", "custody-iavl")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	s, err := NewCommitStore(dir, "test")
	require.NoError(t, err)
	require.NoError(t, s.LoadLatestVersion())
	require.NoError(t, s.Set([]byte("kept"), []byte("yes")))
	_, err = s.Commit()
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewCommitStore(dir, "test")
	require.NoError(t, err)
	defer reopened.Close()
	require.NoError(t, reopened.LoadLatestVersion())
	val, err := reopened.Get([]byte("kept"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), val)
}
