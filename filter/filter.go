package filter

import (
	"context"

	"github.com/rushteam/catflow/core"
)

// Filter 是候选过滤器的抽象接口，在拉取 flow 之前剔除不需要的候选。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断候选是否应该被过滤
	ShouldFilter(ctx context.Context, dctx *core.DocumentContext, m *core.Mention, c *core.Candidate) (bool, error)
}

// Preparer 是可选接口：FilterNode 每处理一篇文档前调用一次，
// 用于一次性加载外部数据（例如从 Store 读取黑名单）。
type Preparer interface {
	Prepare(ctx context.Context, dctx *core.DocumentContext) error
}
