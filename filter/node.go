package filter

import (
	"context"
	"log/slog"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被移除。
// 没有候选列表的 mention 保持原样（由拉取阶段统一降级）。
type FilterNode struct {
	Filters []Filter
	Logger  *slog.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	dctx *core.DocumentContext,
	mentions []*core.Mention,
) ([]*core.Mention, error) {
	if len(n.Filters) == 0 || len(mentions) == 0 {
		return mentions, nil
	}

	for _, f := range n.Filters {
		if p, ok := f.(Preparer); ok {
			if err := p.Prepare(ctx, dctx); err != nil {
				// 准备失败时记录但不中断流程，该过滤器按无数据处理
				n.logger().WarnContext(ctx, "filter prepare failed",
					"doc_id", dctx.ID(), "filter", f.Name(), "error", err)
			}
		}
	}

	filteredCount := 0
	for _, m := range mentions {
		if m == nil || m.Candidates == nil {
			continue
		}
		out := make([]*core.Candidate, 0, len(m.Candidates))
		for _, c := range m.Candidates {
			if c == nil {
				continue
			}
			if n.shouldFilter(ctx, dctx, m, c) {
				filteredCount++
				continue
			}
			out = append(out, c)
		}
		m.Candidates = out
	}

	if filteredCount > 0 {
		n.logger().DebugContext(ctx, "candidates filtered",
			"doc_id", dctx.ID(), "count", filteredCount)
	}
	return mentions, nil
}

func (n *FilterNode) shouldFilter(ctx context.Context, dctx *core.DocumentContext, m *core.Mention, c *core.Candidate) bool {
	for _, f := range n.Filters {
		ok, err := f.ShouldFilter(ctx, dctx, m, c)
		if err != nil {
			// 过滤器错误时记录但不中断流程
			n.logger().WarnContext(ctx, "filter failed",
				"doc_id", dctx.ID(), "filter", f.Name(), "uri", c.URI, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

func (n *FilterNode) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

var _ pipeline.Node = (*FilterNode)(nil)
