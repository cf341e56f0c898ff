package fetch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/metrics"
)

// CachedFetcher 用 core.Store 缓存另一个 FlowMapFetcher 的结果。
//
// key 由语言、最大结果数与排序后的候选集合决定，因此同一集合不论顺序都命中同一条缓存。
// 存储读写出错时按未命中处理，只缓存成功的拉取结果。
type CachedFetcher struct {
	Fetcher core.FlowMapFetcher
	Store   core.Store

	// Prefix 是缓存 key 前缀，默认 "catflow"
	Prefix string

	// TTL 过期时间（秒），0 表示不过期
	TTL int

	Logger *slog.Logger
}

func (f *CachedFetcher) Name() string {
	return "cached:" + f.Fetcher.Name()
}

func (f *CachedFetcher) FetchFlowMap(ctx context.Context, req core.FlowRequest) (*core.FlowResult, error) {
	if f.Store == nil {
		return f.Fetcher.FetchFlowMap(ctx, req)
	}

	key := f.Key(req)
	if data, err := f.Store.Get(ctx, key); err == nil {
		var res core.FlowResult
		if err := json.Unmarshal(data, &res); err == nil {
			metrics.RecordCache(f.Store.Name(), true)
			if res.FlowMap == nil {
				res.FlowMap = core.FlowMap{}
			}
			return &res, nil
		}
		f.logger().WarnContext(ctx, "flow cache entry is corrupt", "key", key)
	} else if !core.IsStoreNotFound(err) {
		f.logger().WarnContext(ctx, "flow cache read failed", "key", key, "error", err)
	}
	metrics.RecordCache(f.Store.Name(), false)

	res, err := f.Fetcher.FetchFlowMap(ctx, req)
	if err != nil {
		return res, err
	}
	if res == nil {
		res = core.EmptyFlowResult()
	}

	data, err := json.Marshal(res)
	if err != nil {
		return res, nil
	}
	var setErr error
	if f.TTL > 0 {
		setErr = f.Store.Set(ctx, key, data, f.TTL)
	} else {
		setErr = f.Store.Set(ctx, key, data)
	}
	if setErr != nil {
		f.logger().WarnContext(ctx, "flow cache write failed", "key", key, "error", setErr)
	}
	return res, nil
}

// Key 返回请求对应的缓存 key：{prefix}:{lang}:{maxTopics}:{sha1(sorted ids)}。
func (f *CachedFetcher) Key(req core.FlowRequest) string {
	ids := make([]string, len(req.IDs))
	copy(ids, req.IDs)
	sort.Strings(ids)
	sum := sha1.Sum([]byte(strings.Join(ids, "\x00")))

	prefix := f.Prefix
	if prefix == "" {
		prefix = "catflow"
	}
	lang := req.Language
	if lang == "" {
		lang = core.DefaultLanguage
	}
	return prefix + ":" + lang + ":" + strconv.Itoa(req.MaxTopics) + ":" + hex.EncodeToString(sum[:])
}

func (f *CachedFetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

var _ core.FlowMapFetcher = (*CachedFetcher)(nil)
