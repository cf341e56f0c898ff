package filter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/store"
)

func mention(uris ...string) *core.Mention {
	m := &core.Mention{Candidates: make([]*core.Candidate, 0, len(uris))}
	for i, u := range uris {
		m.Candidates = append(m.Candidates, core.NewCandidate(u, float64(i+1)/10))
	}
	return m
}

func uris(m *core.Mention) []string {
	out := make([]string, 0, len(m.Candidates))
	for _, c := range m.Candidates {
		out = append(out, c.URI)
	}
	return out
}

func TestBlacklistFilter(t *testing.T) {
	ctx := context.Background()
	dctx := core.NewDocumentContext("doc", "en")
	node := &FilterNode{Filters: []Filter{NewBlacklistFilter([]string{"Spam"}, nil, "")}}

	mentions := []*core.Mention{mention("Paris", "Spam", "London"), mention("Spam")}
	out, err := node.Process(ctx, dctx, mentions)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []string{"Paris", "London"}, uris(out[0]))
	assert.Empty(t, out[1].Candidates)
	assert.NotNil(t, out[1].Candidates)
}

func TestBlacklistFilterFromStore(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	adapter := NewStoreAdapter(s)
	require.NoError(t, adapter.SetBlacklist(ctx, "blacklist:en", []string{"Spam", "Junk"}))

	f := NewBlacklistFilter([]string{"Noise"}, adapter, "blacklist:en")
	node := &FilterNode{Filters: []Filter{f}}
	out, err := node.Process(ctx, core.NewDocumentContext("doc", "en"),
		[]*core.Mention{mention("Paris", "Junk", "Noise", "Spam")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris"}, uris(out[0]))
}

func TestBlacklistFilterRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	s, err := store.NewRedisStore(mr.Addr(), 0)
	require.NoError(t, err)
	defer s.Close()

	adapter := NewStoreAdapter(s)
	require.NoError(t, adapter.SetBlacklist(ctx, "bl", []string{"Spam"}))

	f := NewBlacklistFilter(nil, adapter, "bl")
	hit, err := f.ShouldFilter(ctx, nil, nil, core.NewCandidate("Spam", 1))
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestBlacklistFilterMissingKey(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	defer s.Close()

	f := NewBlacklistFilter([]string{"Spam"}, NewStoreAdapter(s), "absent")
	require.NoError(t, f.Prepare(ctx, nil))

	hit, err := f.ShouldFilter(ctx, nil, nil, core.NewCandidate("Spam", 1))
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter(`cand.final_score >= 0.2 && !cand.uri.startsWith("List_of")`)
	require.NoError(t, err)

	node := &FilterNode{Filters: []Filter{f}}
	out, err := node.Process(context.Background(), core.NewDocumentContext("doc", "en"),
		[]*core.Mention{mention("Weak", "Paris", "List_of_cities", "London")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "London"}, uris(out[0]))
}

func TestNewExprFilterRejectsBadExpr(t *testing.T) {
	_, err := NewExprFilter("cand.final_score >=")
	assert.Error(t, err)
}

func TestFilterNodeKeepsMissingCandidateList(t *testing.T) {
	node := &FilterNode{Filters: []Filter{NewBlacklistFilter([]string{"x"}, nil, "")}}
	degraded := &core.Mention{}
	out, err := node.Process(context.Background(), core.NewDocumentContext("doc", "en"),
		[]*core.Mention{degraded, nil})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Nil(t, out[0].Candidates)
	assert.Nil(t, out[1])
}

type errFilter struct{}

func (errFilter) Name() string { return "err" }

func (errFilter) ShouldFilter(context.Context, *core.DocumentContext, *core.Mention, *core.Candidate) (bool, error) {
	return true, assert.AnError
}

func TestFilterNodeIgnoresFilterErrors(t *testing.T) {
	node := &FilterNode{Filters: []Filter{errFilter{}}}
	out, err := node.Process(context.Background(), core.NewDocumentContext("doc", "en"),
		[]*core.Mention{mention("Paris")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris"}, uris(out[0]))
}
