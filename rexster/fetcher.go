package rexster

import (
	"context"
	"fmt"

	"github.com/rushteam/catflow/core"
)

// scriptFetcher 把 Client 的某个脚本适配为 core.FlowMapFetcher，
// 便于 getFlowMap / getCatMap 也能走 fetch.CachedFetcher。
type scriptFetcher struct {
	c      *Client
	script string
}

// Fetcher 返回按脚本名查询的 FlowMapFetcher。
// 支持 ScriptCatFlowMap、ScriptFlowMap、ScriptCatMap。
func (c *Client) Fetcher(script string) (core.FlowMapFetcher, error) {
	switch script {
	case ScriptCatFlowMap:
		return c, nil
	case ScriptFlowMap, ScriptCatMap:
		return &scriptFetcher{c: c, script: script}, nil
	default:
		return nil, core.NewDomainError(core.ModuleGraph, core.ErrorCodeNotSupported,
			fmt.Sprintf("graph: unknown script %q", script))
	}
}

func (f *scriptFetcher) Name() string { return "rexster." + f.script }

func (f *scriptFetcher) FetchFlowMap(ctx context.Context, req core.FlowRequest) (*core.FlowResult, error) {
	lang := langOf(req.Language)
	if f.script == ScriptCatMap {
		return f.c.CategoryMap(ctx, req.IDs, lang)
	}
	return f.c.FlowMap(ctx, req.IDs, lang)
}
