package rerank

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/fetch"
	"github.com/rushteam/catflow/filter"
)

// tableFetcher 按请求中的标识集合返回预置的 flow map。
type tableFetcher struct {
	mu    sync.Mutex
	calls []string
	table map[string]core.FlowMap // key: 逗号拼接的标识
}

func (f *tableFetcher) Name() string { return "table" }

func (f *tableFetcher) FetchFlowMap(_ context.Context, req core.FlowRequest) (*core.FlowResult, error) {
	key := strings.Join(req.IDs, ",")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()

	fm, ok := f.table[key]
	if !ok {
		return core.EmptyFlowResult(), errors.New("unknown ids " + key)
	}
	return &core.FlowResult{FlowMap: fm.Clone(), RelatedTopics: len(fm)}, nil
}

func twoMentions() []*core.Mention {
	return []*core.Mention{
		{Candidates: []*core.Candidate{cand("b", 3), cand("a", 2)}},
		{Candidates: []*core.Candidate{cand("a", 1), cand("b", 1), cand("a", 1)}},
	}
}

func twoMentionTable() map[string]core.FlowMap {
	return map[string]core.FlowMap{
		"b,a": {"a": 10, "b": 20},
		"a,b": {"a": 5, "b": 0},
	}
}

func TestReranker_EndToEnd(t *testing.T) {
	for _, strategy := range []fetch.Strategy{fetch.StrategySequential, fetch.StrategyParallel} {
		t.Run(string(strategy), func(t *testing.T) {
			f := &tableFetcher{table: twoMentionTable()}
			ms := twoMentions()

			out, err := New(f, WithStrategy(strategy), WithMaxConcurrent(2)).
				Rerank(context.Background(), core.NewDocumentContext("doc", "en"), ms)
			if err != nil {
				t.Fatal(err)
			}
			if len(f.calls) != 2 {
				t.Errorf("fetch calls = %v, want one per mention", f.calls)
			}
			if got := order(out[0]); !equalOrder(got, []string{"a", "b"}) {
				t.Errorf("mention1 order = %v", got)
			}
			if !approx(out[0].Candidates[0].CatFlowScore, 13.5) || !approx(out[0].Candidates[1].CatFlowScore, 20.25) {
				t.Errorf("mention1 scores = %v, %v",
					out[0].Candidates[0].CatFlowScore, out[0].Candidates[1].CatFlowScore)
			}
			if len(out[1].Candidates) != 3 {
				t.Errorf("duplicate candidates must be kept, got %d", len(out[1].Candidates))
			}
		})
	}
}

func TestReranker_FetchFailureDegradesMention(t *testing.T) {
	f := &tableFetcher{table: map[string]core.FlowMap{"a": {"a": 8}}}
	ms := []*core.Mention{
		{Candidates: []*core.Candidate{cand("a", 1)}},
		{Candidates: []*core.Candidate{cand("unknown", 1)}},
	}
	out, err := New(f).Rerank(context.Background(), core.NewDocumentContext("doc", "en"), ms)
	if err != nil {
		t.Fatal(err)
	}
	// G = {a:4}, floor = 3.6
	if !approx(out[0].Candidates[0].CatFlowScore, 3.6) {
		t.Errorf("score = %v", out[0].Candidates[0].CatFlowScore)
	}
	if !approx(out[1].Candidates[0].CatFlowScore, 3.6) || !approx(out[1].Candidates[0].CatFlow, 0) {
		t.Errorf("degraded mention candidate = %+v", out[1].Candidates[0])
	}
}

func TestReranker_AllFetchesFail(t *testing.T) {
	f := &tableFetcher{}
	ms := twoMentions()
	_, err := New(f).Rerank(context.Background(), core.NewDocumentContext("doc", "en"), ms)
	if !core.IsEmptyDocumentFlow(err) {
		t.Fatalf("err = %v, want empty document flow", err)
	}
	if got := order(ms[0]); !equalOrder(got, []string{"b", "a"}) {
		t.Errorf("order changed on failure: %v", got)
	}
}

func TestReranker_NoMentions(t *testing.T) {
	f := &tableFetcher{}
	_, err := New(f).Rerank(context.Background(), core.NewDocumentContext("doc", "en"), nil)
	if !core.IsNoMentions(err) {
		t.Fatalf("err = %v, want no mentions", err)
	}
	if len(f.calls) != 0 {
		t.Error("fetcher must not be called without mentions")
	}
}

func TestReranker_FiltersRunBeforeFetch(t *testing.T) {
	f := &tableFetcher{table: map[string]core.FlowMap{"a": {"a": 1}}}
	ms := []*core.Mention{{Candidates: []*core.Candidate{cand("a", 1), cand("Spam", 1)}}}

	out, err := New(f, WithFilters(filter.NewBlacklistFilter([]string{"Spam"}, nil, ""))).
		Rerank(context.Background(), core.NewDocumentContext("doc", "en"), ms)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.calls) != 1 || f.calls[0] != "a" {
		t.Errorf("calls = %v", f.calls)
	}
	if got := order(out[0]); !equalOrder(got, []string{"a"}) {
		t.Errorf("order = %v", got)
	}
}

func TestReranker_PipelineNodes(t *testing.T) {
	p := New(&tableFetcher{}, WithFilters(filter.NewBlacklistFilter(nil, nil, ""))).Pipeline()
	want := []string{"filter.node", "fetch.flow", "rerank.catflow"}
	if len(p.Nodes) != len(want) {
		t.Fatalf("nodes = %d", len(p.Nodes))
	}
	for i, n := range p.Nodes {
		if n.Name() != want[i] {
			t.Errorf("node %d = %s, want %s", i, n.Name(), want[i])
		}
	}
}
