package config

import (
	"github.com/rushteam/catflow/core"
)

// 配置里的 Node 只能引用名字，运行时依赖（图查询客户端、缓存 Store）
// 由入口注册到这里，builder 再按名字取用：
//
//	config.RegisterFetcher("default", cachedClient)
//	config.RegisterStore("default", redisStore)

// DefaultName 是配置未指定名字时使用的资源名。
const DefaultName = "default"

var (
	fetchers = newRegistry[core.FlowMapFetcher]("fetcher")
	stores   = newRegistry[core.Store]("store")
)

// RegisterFetcher 注册一个具名 FlowMapFetcher，重复注册会覆盖。
func RegisterFetcher(name string, f core.FlowMapFetcher) {
	if name == "" || f == nil {
		return
	}
	fetchers.set(name, f)
}

// GetFetcher 按名字取 FlowMapFetcher，空名字取 DefaultName。
func GetFetcher(name string) (core.FlowMapFetcher, error) {
	if name == "" {
		name = DefaultName
	}
	return fetchers.get(name)
}

// RegisterStore 注册一个具名 Store，重复注册会覆盖。
func RegisterStore(name string, s core.Store) {
	if name == "" || s == nil {
		return
	}
	stores.set(name, s)
}

// GetStore 按名字取 Store，空名字取 DefaultName。
func GetStore(name string) (core.Store, error) {
	if name == "" {
		name = DefaultName
	}
	return stores.get(name)
}
