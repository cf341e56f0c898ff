package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/store"
)

type failingStore struct{ core.Store }

func (failingStore) Name() string { return "failing" }
func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("read failed")
}
func (failingStore) Set(context.Context, string, []byte, ...int) error {
	return errors.New("write failed")
}

func TestCachedFetcher_HitAfterMiss(t *testing.T) {
	ctx := context.Background()
	inner := &recordingFetcher{flows: map[string]float64{"A": 1, "B": 2}}
	s := store.NewMemoryStore()
	defer s.Close()
	f := &CachedFetcher{Fetcher: inner, Store: s, TTL: 60}

	first, err := f.FetchFlowMap(ctx, core.FlowRequest{IDs: []string{"A", "B"}, Language: "en"})
	require.NoError(t, err)
	// 顺序不同的同一集合命中同一条缓存
	second, err := f.FetchFlowMap(ctx, core.FlowRequest{IDs: []string{"B", "A"}, Language: "en"})
	require.NoError(t, err)

	assert.Equal(t, first.FlowMap, second.FlowMap)
	assert.Equal(t, 2, second.RelatedTopics)
	assert.Len(t, inner.calls, 1)
	assert.Equal(t, "cached:recording", f.Name())
}

func TestCachedFetcher_KeyVariesByLanguageAndMaxTopics(t *testing.T) {
	f := &CachedFetcher{Prefix: "p"}
	base := f.Key(core.FlowRequest{IDs: []string{"A"}, Language: "en"})
	assert.Equal(t, base, f.Key(core.FlowRequest{IDs: []string{"A"}}))
	assert.NotEqual(t, base, f.Key(core.FlowRequest{IDs: []string{"A"}, Language: "nl"}))
	assert.NotEqual(t, base, f.Key(core.FlowRequest{IDs: []string{"A"}, Language: "en", MaxTopics: 5}))
	assert.Contains(t, base, "p:en:0:")
}

func TestCachedFetcher_DoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	inner := &recordingFetcher{fail: map[string]bool{"A": true}}
	s := store.NewMemoryStore()
	defer s.Close()
	f := &CachedFetcher{Fetcher: inner, Store: s}

	_, err := f.FetchFlowMap(ctx, core.FlowRequest{IDs: []string{"A"}})
	require.Error(t, err)
	_, err = f.FetchFlowMap(ctx, core.FlowRequest{IDs: []string{"A"}})
	require.Error(t, err)

	assert.Len(t, inner.calls, 2)
	assert.Equal(t, 0, s.Len())
}

func TestCachedFetcher_StoreErrorsDegradeToMiss(t *testing.T) {
	inner := &recordingFetcher{flows: map[string]float64{"A": 1}}
	f := &CachedFetcher{Fetcher: inner, Store: failingStore{}}

	res, err := f.FetchFlowMap(context.Background(), core.FlowRequest{IDs: []string{"A"}})
	require.NoError(t, err)
	assert.Equal(t, core.FlowMap{"A": 1}, res.FlowMap)
}

func TestCachedFetcher_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	inner := &recordingFetcher{flows: map[string]float64{"A": 1}}
	s := store.NewMemoryStore()
	defer s.Close()
	f := &CachedFetcher{Fetcher: inner, Store: s}

	req := core.FlowRequest{IDs: []string{"A"}}
	require.NoError(t, s.Set(ctx, f.Key(req), []byte("not json")))

	res, err := f.FetchFlowMap(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, core.FlowMap{"A": 1}, res.FlowMap)
	assert.Len(t, inner.calls, 1)
}
