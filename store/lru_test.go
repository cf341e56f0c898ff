package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/catflow/core"
)

func TestLRUStore(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(2, 0)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))

	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	// a 刚被访问过，淘汰 b
	require.NoError(t, s.Set(ctx, "c", []byte("3")))
	_, err = s.Get(ctx, "b")
	assert.True(t, core.IsStoreNotFound(err))
	assert.Equal(t, 2, s.Len())

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestLRUStoreBatch(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(0, 0)
	require.NoError(t, s.BatchSet(ctx, map[string][]byte{"x": []byte("1"), "y": []byte("2")}))

	got, err := s.BatchGet(ctx, []string{"x", "y", "z"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "lru", s.Name())
}

func TestLRUStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewLRUStore(10, 20*time.Millisecond)
	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, "k")
		return core.IsStoreNotFound(err)
	}, time.Second, 10*time.Millisecond)
}
