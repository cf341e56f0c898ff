// Package fetch 是重排的拉取阶段：为每个 mention 的去重候选集合拉取 FlowMap。
package fetch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/metrics"
	"github.com/rushteam/catflow/pipeline"
)

// Strategy 决定各 mention 的拉取如何调度。
// 两种策略产生的每个 mention 的 FlowMap 完全相同，区别只在网络往返的并发度。
type Strategy string

const (
	// StrategySequential 逐个 mention 拉取，上一次完成（成功或降级）后才开始下一次
	StrategySequential Strategy = "sequential"
	// StrategyParallel 并发拉取，最大并发数由 MaxConcurrent 控制
	StrategyParallel Strategy = "parallel"
)

// 降级原因，用于日志和 metrics 标签
const (
	reasonMissingCandidates = "missing_candidates"
	reasonFetchError        = "fetch_error"
)

// Node 为每个 mention 调用一次 FlowMapFetcher（不跨 mention 合并请求），
// 结果写入 mention.FlowMap。
//
// 单个 mention 的问题只在本地降级：
//   - 缺少候选列表或候选缺少标识：候选列表置空，FlowMap 置空
//   - 拉取失败：FlowMap 置空
//
// 只有 ctx 被取消时才返回错误。
type Node struct {
	Fetcher  core.FlowMapFetcher
	Strategy Strategy

	// MaxConcurrent 是并发策略下的最大并发数（<= 0 时使用 Config 默认值）
	MaxConcurrent int

	// Timeout 是单次拉取的超时时间（0 表示不额外设置）
	Timeout time.Duration

	// ReuseExisting 为 true 时，已带有 FlowMap 的 mention 不再重复拉取
	ReuseExisting bool

	Config core.RerankConfig
	Logger *slog.Logger
}

func (n *Node) Name() string        { return "fetch.flow" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFetch }

func (n *Node) Process(
	ctx context.Context,
	dctx *core.DocumentContext,
	mentions []*core.Mention,
) ([]*core.Mention, error) {
	if n.Fetcher == nil {
		return nil, core.NewDomainError(core.ModuleFetch, core.ErrorCodeInvalidInput, "fetch: fetcher is required")
	}
	if len(mentions) == 0 {
		return mentions, nil
	}

	type job struct {
		idx  int
		uris []string
	}
	jobs := make([]job, 0, len(mentions))
	for i, m := range mentions {
		if m == nil {
			continue
		}
		if n.ReuseExisting && m.FlowMap != nil {
			continue
		}
		uris, ok := m.UniqueURIs()
		if !ok {
			n.logger().WarnContext(ctx, "mention has no usable candidates",
				"doc_id", dctx.ID(), "mention", i)
			metrics.RecordDegraded(reasonMissingCandidates)
			m.Candidates = []*core.Candidate{}
			m.FlowMap = core.FlowMap{}
			continue
		}
		if len(uris) == 0 {
			m.FlowMap = core.FlowMap{}
			continue
		}
		jobs = append(jobs, job{idx: i, uris: uris})
	}

	switch n.Strategy {
	case StrategyParallel:
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(n.maxConcurrent())
		for _, j := range jobs {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				// 每个 goroutine 只写自己的 mention
				mentions[j.idx].FlowMap = n.fetchOne(egCtx, dctx, j.idx, j.uris)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	default:
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			mentions[j.idx].FlowMap = n.fetchOne(ctx, dctx, j.idx, j.uris)
		}
	}

	return mentions, nil
}

// fetchOne 拉取单个 mention 的 FlowMap，失败时返回空 map。
func (n *Node) fetchOne(ctx context.Context, dctx *core.DocumentContext, idx int, uris []string) core.FlowMap {
	fetchCtx := ctx
	if n.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, n.Timeout)
		defer cancel()
	}

	req := core.FlowRequest{IDs: uris, Language: dctx.Lang()}
	if dctx != nil {
		req.MaxTopics = dctx.MaxTopics
	}

	start := time.Now()
	res, err := n.Fetcher.FetchFlowMap(fetchCtx, req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordFetch(n.Fetcher.Name(), "error", elapsed)
		metrics.RecordDegraded(reasonFetchError)
		n.logger().WarnContext(ctx, "flow fetch failed, using empty flow map",
			"doc_id", dctx.ID(), "mention", idx, "ids", len(uris), "error", err)
		return core.FlowMap{}
	}
	metrics.RecordFetch(n.Fetcher.Name(), "ok", elapsed)
	if res == nil || res.FlowMap == nil {
		return core.FlowMap{}
	}
	n.logger().DebugContext(ctx, "flow fetched",
		"doc_id", dctx.ID(), "mention", idx, "ids", len(uris), "related_topics", res.RelatedTopics)
	return res.FlowMap
}

func (n *Node) maxConcurrent() int {
	if n.MaxConcurrent > 0 {
		return n.MaxConcurrent
	}
	cfg := n.Config
	if cfg == nil {
		cfg = &core.DefaultRerankConfig{}
	}
	return cfg.DefaultMaxConcurrent()
}

func (n *Node) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

var _ pipeline.Node = (*Node)(nil)
