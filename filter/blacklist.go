package filter

import (
	"context"
	"sync"

	"github.com/rushteam/catflow/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉 URI 在黑名单中的候选。
type BlacklistFilter struct {
	// URIs 是内存中的黑名单
	URIs []string

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string

	mu     sync.RWMutex
	loaded map[string]struct{}
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单 URI 列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(uris []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &BlacklistFilter{
		URIs:  uris,
		Store: store,
		Key:   key,
	}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Prepare 从 Store 读取黑名单并缓存到本次文档处理结束。
func (f *BlacklistFilter) Prepare(ctx context.Context, _ *core.DocumentContext) error {
	set := make(map[string]struct{}, len(f.URIs))
	for _, u := range f.URIs {
		set[u] = struct{}{}
	}
	var err error
	if f.Store != nil && f.Key != "" {
		var list []string
		list, err = f.Store.GetBlacklist(ctx, f.Key)
		if core.IsStoreNotFound(err) {
			err = nil
		}
		for _, u := range list {
			set[u] = struct{}{}
		}
	}
	f.mu.Lock()
	f.loaded = set
	f.mu.Unlock()
	return err
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	dctx *core.DocumentContext,
	_ *core.Mention,
	c *core.Candidate,
) (bool, error) {
	if c == nil {
		return true, nil
	}

	f.mu.RLock()
	set := f.loaded
	f.mu.RUnlock()
	if set == nil {
		// 未经 FilterNode 调用时按需加载
		_ = f.Prepare(ctx, dctx)
		f.mu.RLock()
		set = f.loaded
		f.mu.RUnlock()
	}

	_, hit := set[c.URI]
	return hit, nil
}

var _ Preparer = (*BlacklistFilter)(nil)
