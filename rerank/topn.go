package rerank

import (
	"context"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/pipeline"
)

// TopNNode 对每个 mention 的候选列表做截断，通常放在 CatFlowNode 之后。
//
// CatFlowNode 按分数升序排列，分数最高的候选在列表末尾，
// 因此需要保留高分候选时设置 Tail = true。
//
// 示例：
//
//	p := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &fetch.Node{Fetcher: client},
//	        &rerank.CatFlowNode{},
//	        &rerank.TopNNode{N: 3, Tail: true}, // 每个 mention 保留分数最高的 3 个候选
//	    },
//	}
type TopNNode struct {
	// N 要保留的候选数量
	// 如果 N <= 0，则不截断
	N int

	// Tail 为 true 时保留列表末尾的 N 个，否则保留开头的 N 个
	Tail bool
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.DocumentContext,
	mentions []*core.Mention,
) ([]*core.Mention, error) {
	if n.N <= 0 {
		return mentions, nil
	}

	for _, m := range mentions {
		if m == nil || len(m.Candidates) <= n.N {
			continue
		}
		if n.Tail {
			m.Candidates = m.Candidates[len(m.Candidates)-n.N:]
		} else {
			m.Candidates = m.Candidates[:n.N]
		}
	}
	return mentions, nil
}

var _ pipeline.Node = (*TopNNode)(nil)
