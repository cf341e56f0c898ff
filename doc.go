// Package catflow 按 category flow 对实体消歧的候选重排。
//
// 设计要点：
// - Pipeline-first: 重排通过 Node 串联（Filter → Fetch → ReRank → PostProcess）
// - 折叠后只读: 先为每个 mention 拉取 FlowMap，再一次性折叠为全文平均 flow，各 mention 留一计算上下文 flow
// - 失败降级: 单个 mention 拉取失败只会得到空 FlowMap，不影响整篇文档
// - Labels-first: 重排结果以 label 写回候选，便于 explain / 观测
package catflow

import (
	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/pipeline"
	"github.com/rushteam/catflow/rerank"
)

// 轻量 facade：便于用户直接 import "catflow" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

type Mention = core.Mention
type Candidate = core.Candidate
type FlowMap = core.FlowMap
type FlowMapFetcher = core.FlowMapFetcher

const (
	KindFilter      = pipeline.KindFilter
	KindFetch       = pipeline.KindFetch
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建默认配置的 Reranker，见 rerank.New。
func New(fetcher FlowMapFetcher, opts ...rerank.Option) *rerank.Reranker {
	return rerank.New(fetcher, opts...)
}
