package core

import "context"

// FlowRequest 是一次 flow 拉取请求。
type FlowRequest struct {
	IDs       []string // 去重后的候选标识，非空
	Language  string
	MaxTopics int // 0 表示不限制
}

// FlowResult 是一次 flow 拉取的结果。
// 拉取失败时 RelatedTopics 为 0 且 FlowMap 为空。
type FlowResult struct {
	FlowMap       FlowMap `json:"flow_map"`
	RelatedTopics int     `json:"n_related_topics"`
}

// EmptyFlowResult 返回失败降级使用的空结果。
func EmptyFlowResult() *FlowResult {
	return &FlowResult{FlowMap: FlowMap{}, RelatedTopics: 0}
}

// FlowMapFetcher 是 flow 数据来源（图查询服务、缓存等）的领域接口。
//
// 实现负责标识合法性过滤、转义与重试；返回 error 时调用方会把该 mention
// 降级为空 FlowMap，不会中断整篇文档。
type FlowMapFetcher interface {
	// Name 返回数据来源名称（用于日志/监控）
	Name() string

	FetchFlowMap(ctx context.Context, req FlowRequest) (*FlowResult, error)
}

// FlowMapFetcherFunc 让普通函数实现 FlowMapFetcher，便于测试和组合。
type FlowMapFetcherFunc func(ctx context.Context, req FlowRequest) (*FlowResult, error)

func (f FlowMapFetcherFunc) Name() string { return "func" }

func (f FlowMapFetcherFunc) FetchFlowMap(ctx context.Context, req FlowRequest) (*FlowResult, error) {
	return f(ctx, req)
}
