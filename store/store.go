// Package store 提供 core.Store 的实现，主要用作 flow 缓存与黑名单的存储后端。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	cached := &fetch.CachedFetcher{Fetcher: client, Store: s, TTL: 86400}
package store
