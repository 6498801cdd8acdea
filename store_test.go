package shardkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarkmcc/go-shardkv/config"
	"github.com/clarkmcc/go-shardkv/kverrors"
)

func TestStore_openRejectsNonPositiveWorkerCount(t *testing.T) {
	_, err := Open(config.Config{WorkerCount: 0, Backlog: 8})
	assert.Error(t, err)
}

func TestStore_endToEnd(t *testing.T) {
	s, err := Open(config.Config{WorkerCount: 4, Backlog: 16})
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.Get(1, "k")
	assert.True(t, kverrors.Is(err, kverrors.KindUnknownShard))

	s.AddShard(1)
	assert.True(t, s.HasShard(1))

	_, _, err = s.Get(1, "k")
	assert.True(t, kverrors.Is(err, kverrors.KindNotFound))

	prior, had, err := s.Put(1, "k", []byte("v1"))
	require.NoError(t, err)
	assert.False(t, had)
	assert.Nil(t, prior)

	v, found, err := s.Get(1, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), v)

	prior, had, err = s.Delete(1, "k")
	require.NoError(t, err)
	assert.True(t, had)
	assert.Equal(t, []byte("v1"), prior)

	_, found, err = s.Get(1, "k")
	require.Error(t, err)
	assert.False(t, found)

	s.RemoveShard(1)
	assert.False(t, s.HasShard(1))
}

func TestStore_importShards(t *testing.T) {
	s, err := Open(config.Config{WorkerCount: 2, Backlog: 8})
	require.NoError(t, err)
	defer s.Close()

	s.ImportShards(map[uint64]map[string][]byte{
		1: {"a": []byte("1")},
		2: {"b": []byte("2")},
	}, 2)

	v, found, err := s.Get(1, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("1"), v)

	v, found, err = s.Get(2, "b")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("2"), v)
}
