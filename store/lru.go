package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rushteam/catflow/core"
)

// LRUStore 是容量受限的进程内 Store，超出容量时淘汰最久未使用的 key。
// 所有 key 共用构造时给定的 TTL，Set 的 ttl 参数被忽略。
type LRUStore struct {
	cache *expirable.LRU[string, []byte]
}

// NewLRUStore 创建 LRUStore。size <= 0 表示不限容量，ttl <= 0 表示不过期。
func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	if size < 0 {
		size = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return &LRUStore{cache: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *LRUStore) Name() string { return "lru" }

func (s *LRUStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return v, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value []byte, _ ...int) error {
	s.cache.Add(key, value)
	return nil
}

func (s *LRUStore) Delete(_ context.Context, key string) error {
	s.cache.Remove(key)
	return nil
}

func (s *LRUStore) BatchGet(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.cache.Get(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *LRUStore) BatchSet(_ context.Context, kvs map[string][]byte, _ ...int) error {
	for k, v := range kvs {
		s.cache.Add(k, v)
	}
	return nil
}

// Len 返回当前缓存的 key 数。
func (s *LRUStore) Len() int { return s.cache.Len() }

func (s *LRUStore) Close() error {
	s.cache.Purge()
	return nil
}

var _ core.Store = (*LRUStore)(nil)
