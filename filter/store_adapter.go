package filter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rushteam/catflow/core"
)

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
// 黑名单以 JSON 字符串数组的形式保存在单个 key 下。
type StoreAdapter struct {
	store core.Store
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var uris []string
	if err := json.Unmarshal(data, &uris); err != nil {
		return nil, fmt.Errorf("decode blacklist %s: %w", key, err)
	}
	return uris, nil
}

// SetBlacklist 把黑名单写入 Store。
func (a *StoreAdapter) SetBlacklist(ctx context.Context, key string, uris []string) error {
	data, err := json.Marshal(uris)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}
