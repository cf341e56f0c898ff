package rerank

import (
	"context"
	"log/slog"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/fetch"
	"github.com/rushteam/catflow/filter"
	"github.com/rushteam/catflow/pipeline"
)

// Reranker 是 “拉取 + 重排” 的一站式入口：
//
//	r := rerank.New(client, rerank.WithStrategy(fetch.StrategyParallel))
//	mentions, err := r.Rerank(ctx, core.NewDocumentContext("doc-1", "en"), mentions)
//
// 内部组装为 [filter] -> fetch.flow -> rerank.catflow 的 Pipeline。
type Reranker struct {
	fetcher       core.FlowMapFetcher
	strategy      fetch.Strategy
	maxConcurrent int
	floorFactor   float64
	filters       []filter.Filter
	logger        *slog.Logger
}

// Option 配置 Reranker。
type Option func(*Reranker)

// WithStrategy 设置拉取策略，默认逐个 mention 顺序拉取。
func WithStrategy(s fetch.Strategy) Option {
	return func(r *Reranker) { r.strategy = s }
}

// WithMaxConcurrent 设置并发拉取时的最大并发数。
func WithMaxConcurrent(n int) Option {
	return func(r *Reranker) { r.maxConcurrent = n }
}

// WithFloorFactor 设置 floor 系数，默认 0.9。
func WithFloorFactor(f float64) Option {
	return func(r *Reranker) { r.floorFactor = f }
}

// WithFilters 在拉取前对候选执行过滤。
func WithFilters(filters ...filter.Filter) Option {
	return func(r *Reranker) { r.filters = append(r.filters, filters...) }
}

// WithLogger 设置日志。
func WithLogger(l *slog.Logger) Option {
	return func(r *Reranker) { r.logger = l }
}

func New(fetcher core.FlowMapFetcher, opts ...Option) *Reranker {
	r := &Reranker{
		fetcher:  fetcher,
		strategy: fetch.StrategySequential,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Pipeline 返回 Reranker 对应的 Pipeline，便于追加自定义 Node。
func (r *Reranker) Pipeline() *pipeline.Pipeline {
	nodes := make([]pipeline.Node, 0, 3)
	if len(r.filters) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: r.filters})
	}
	nodes = append(nodes,
		&fetch.Node{
			Fetcher:       r.fetcher,
			Strategy:      r.strategy,
			MaxConcurrent: r.maxConcurrent,
			Logger:        r.logger,
		},
		&CatFlowNode{
			FloorFactor: r.floorFactor,
			Logger:      r.logger,
		},
	)
	return &pipeline.Pipeline{Name: "catflow", Nodes: nodes}
}

// Rerank 对一篇文档的所有 mention 重排，mention 之间的顺序不变。
// 没有 mention 时在拉取之前直接返回 core.ErrNoMentions。
func (r *Reranker) Rerank(
	ctx context.Context,
	dctx *core.DocumentContext,
	mentions []*core.Mention,
) ([]*core.Mention, error) {
	if len(mentions) == 0 {
		return nil, core.ErrNoMentions
	}
	return r.Pipeline().Run(ctx, dctx, mentions)
}
