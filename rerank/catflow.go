package rerank

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/flow"
	"github.com/rushteam/catflow/metrics"
	"github.com/rushteam/catflow/pipeline"
	"github.com/rushteam/catflow/pkg/utils"
)

// 写在每个候选上的 label key
const (
	LabelCatFlow      = "cat_flow"
	LabelCatFlowFloor = "cat_flow_floor"
)

// CatFlowNode 是基于 category flow 的重排节点。
//
// 输入的每个 mention 需已带 FlowMap（由 fetch.Node 拉取，降级的 mention 为空 map）。
// 处理步骤：
//  1. 折叠所有 mention 的 FlowMap 得到全文平均 flow G（除以 mention 总数 N）
//  2. floor = FloorFactor × min(G)
//  3. 每个 mention 的上下文 flow C = G - own/N（仍除以 N）
//  4. 候选 cat_flow = C[uri]，cat_flow_score = finalScore × max(floor, cat_flow)
//  5. 按 cat_flow_score 升序稳定排序（分数低的在前）
//
// N = 0 或 G 为空时整篇文档失败，不修改任何候选。
type CatFlowNode struct {
	// FloorFactor 默认 0.9
	FloorFactor float64

	Config core.RerankConfig
	Logger *slog.Logger
}

func (n *CatFlowNode) Name() string        { return "rerank.catflow" }
func (n *CatFlowNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *CatFlowNode) Process(
	ctx context.Context,
	dctx *core.DocumentContext,
	mentions []*core.Mention,
) ([]*core.Mention, error) {
	maps := make([]core.FlowMap, len(mentions))
	for i, m := range mentions {
		if m != nil {
			maps[i] = m.FlowMap
		}
	}

	doc, err := flow.Summarize(maps, n.floorFactor())
	if err != nil {
		metrics.RecordDocument("failed")
		n.logger().WarnContext(ctx, "document cannot be reranked",
			"doc_id", dctx.ID(), "mentions", len(mentions), "error", err)
		return nil, err
	}

	for i, m := range mentions {
		if m == nil {
			continue
		}
		if m.Candidates == nil {
			m.Candidates = []*core.Candidate{}
		}
		contextFlow, err := doc.Context(i)
		if err != nil {
			return nil, err
		}
		for _, c := range m.Candidates {
			if c == nil {
				continue
			}
			c.CatFlow = flow.Lookup(contextFlow, c.URI)
			c.CatFlowScore = doc.Score(c.FinalScore, c.CatFlow)
			c.SetLabel(LabelCatFlow, utils.FloatLabel(c.CatFlow, "rerank"))
			if c.CatFlow <= doc.Floor {
				c.SetLabel(LabelCatFlowFloor, utils.FloatLabel(doc.Floor, "rerank"))
			} else {
				delete(c.Labels, LabelCatFlowFloor)
			}
		}
		sortAscending(m.Candidates)
	}

	if dctx != nil {
		dctx.PutLabel(LabelCatFlowFloor, utils.FloatLabel(doc.Floor, "rerank"))
	}
	metrics.RecordDocument("ok")
	n.logger().DebugContext(ctx, "document reranked",
		"doc_id", dctx.ID(), "mentions", doc.N, "topics", len(doc.Global), "floor", doc.Floor)
	return mentions, nil
}

// sortAscending 按 cat_flow_score 升序稳定排序，nil 候选排在最后。
func sortAscending(cands []*core.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i] == nil {
			return false
		}
		if cands[j] == nil {
			return true
		}
		return cands[i].CatFlowScore < cands[j].CatFlowScore
	})
}

func (n *CatFlowNode) floorFactor() float64 {
	if n.FloorFactor > 0 {
		return n.FloorFactor
	}
	cfg := n.Config
	if cfg == nil {
		cfg = &core.DefaultRerankConfig{}
	}
	return cfg.DefaultFloorFactor()
}

func (n *CatFlowNode) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

var _ pipeline.Node = (*CatFlowNode)(nil)
