package pipeline

import (
	"context"

	"github.com/rushteam/catflow/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：拉取前剔除不需要的候选
	KindFetch       Kind = "fetch"       // 拉取阶段：为每个 mention 拉取 FlowMap
	KindReRank      Kind = "rerank"      // 重排阶段：按上下文 flow 重新打分并排序
	KindPostProcess Kind = "postprocess" // 后处理阶段：截断或结果修饰
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 mentions -> 输出 mentions”的形态；mention 之间的顺序由 Node 保持。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		dctx *core.DocumentContext,
		mentions []*core.Mention,
	) ([]*core.Mention, error)
}

// NodeBuilder 根据 config 构建 Node。
type NodeBuilder func(config map[string]interface{}) (Node, error)
