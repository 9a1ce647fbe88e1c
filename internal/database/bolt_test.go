package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *BoltKVStore {
	t.Helper()

	s, err := NewBoltKVStore(filepath.Join(t.TempDir(), "test.db"), "test")
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	return s
}

func TestBoltKVStoreReadUpdate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	data, err := s.ReadKey([]byte("missing"))
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, s.UpdateKey([]byte("rp/JetBrains"), []byte("v1")))
	require.NoError(t, s.UpdateKey([]byte("rp/JetBrains"), []byte("v2")))

	data, err = s.ReadKey([]byte("rp/JetBrains"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestBoltKVStoreForEachAndDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, k := range []string{"ct/a/1", "rp/b", "ct/a/2", "rp/a", "cu/x"} {
		require.NoError(t, s.UpdateKey([]byte(k), []byte(k)))
	}

	var keys []string
	err := s.ForEach([]byte("rp/"), func(key []byte, data []byte) error {
		assert.Equal(t, key, data)
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"rp/a", "rp/b"}, keys)

	require.NoError(t, s.DeleteKeys([][]byte{[]byte("ct/a/1"), []byte("ct/a/2"), []byte("not-there")}))

	keys = nil
	err = s.ForEach([]byte("c"), func(key []byte, data []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cu/x"}, keys)
}

func TestNewBoltKVStoreEmptyBucket(t *testing.T) {
	t.Parallel()

	_, err := NewBoltKVStore(filepath.Join(t.TempDir(), "test.db"), "")
	assert.Error(t, err)
}
