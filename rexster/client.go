// Package rexster 是图查询服务（Rexster + Gremlin 扩展脚本）的 HTTP 客户端，
// 提供 category flow、flow 与 category 映射查询。
package rexster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/metrics"
	"github.com/rushteam/catflow/pkg/conv"
)

const (
	DefaultGraph      = "dbp-sail"
	DefaultLoad       = "[v0_categories]"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultBackoff    = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second

	// maxResponseSize 限制单次响应体大小
	maxResponseSize = 32 << 20
)

// Config 是图查询客户端配置。
type Config struct {
	// Endpoint 服务地址，例如 http://localhost:8182
	Endpoint string
	// Graph 图名称，默认 dbp-sail
	Graph string
	// Load 随请求加载的脚本，默认 [v0_categories]
	Load string

	Timeout    time.Duration
	MaxRetries int
	// Backoff 是第一次重试前的等待时间，之后每次翻倍
	Backoff time.Duration
	// MaxBackoff 是单次等待的上限
	MaxBackoff time.Duration
	// RatePerSecond 每秒最多请求数，0 表示不限速
	RatePerSecond float64
}

// Client 实现 core.FlowMapFetcher，通过 getCatFlowMap 拉取 category flow。
type Client struct {
	cfg     Config
	url     string
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option 配置 Client。
type Option func(*Client)

// WithHTTPClient 替换默认的 http.Client。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger 设置日志。
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New 创建图查询客户端。
func New(cfg Config, opts ...Option) *Client {
	if cfg.Graph == "" {
		cfg.Graph = DefaultGraph
	}
	if cfg.Load == "" {
		cfg.Load = DefaultLoad
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultMaxBackoff
	}
	cfg.MaxBackoff = max(cfg.MaxBackoff, cfg.Backoff)

	c := &Client{
		cfg:  cfg,
		url:  strings.TrimRight(cfg.Endpoint, "/") + "/graphs/" + cfg.Graph + "/tp/gremlin",
		http: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// URL 返回 Gremlin 扩展的完整地址。
func (c *Client) URL() string { return c.url }

func (c *Client) Name() string { return "rexster" }

// FetchFlowMap 实现 core.FlowMapFetcher。
func (c *Client) FetchFlowMap(ctx context.Context, req core.FlowRequest) (*core.FlowResult, error) {
	return c.CatFlowMap(ctx, req.IDs, langOf(req.Language), req.MaxTopics)
}

// CatFlowMap 调用 getCatFlowMap(ids, lang, maxTopics)。
func (c *Client) CatFlowMap(ctx context.Context, ids []string, lang string, maxTopics int) (*core.FlowResult, error) {
	slugs := Slugs(ids, lang)
	return c.query(ctx, call{
		name:   ScriptCatFlowMap,
		script: Script(ScriptCatFlowMap, slugs, lang, maxTopics),
		hiccup: Script(ScriptCatFlowMap, head(slugs, 2), lang),
		empty:  len(slugs) == 0,
	})
}

// FlowMap 调用 getFlowMap(ids, lang)。
func (c *Client) FlowMap(ctx context.Context, ids []string, lang string) (*core.FlowResult, error) {
	slugs := Slugs(ids, lang)
	script := Script(ScriptFlowMap, slugs, lang)
	return c.query(ctx, call{name: ScriptFlowMap, script: script, hiccup: script, empty: len(slugs) == 0})
}

// CategoryMap 调用 getCatMap，标识带 dbp: / dbp-nl: 前缀。
// 结果中 RelatedTopics 为找到的 category 数。
func (c *Client) CategoryMap(ctx context.Context, ids []string, lang string) (*core.FlowResult, error) {
	slugs := CatMapSlugs(ids, lang)
	script := Script(ScriptCatMap, slugs, lang)
	return c.query(ctx, call{name: ScriptCatMap, script: script, hiccup: script, empty: len(slugs) == 0})
}

type call struct {
	name   string
	script string
	hiccup string // 非 200 后用 GET 发送的脚本，服务收到后恢复
	empty  bool   // 过滤后没有可查询的标识
}

// response 是 Gremlin 扩展的响应体。
type response struct {
	Results []json.RawMessage `json:"results"`
}

// statusError 表示服务返回了非 200，可以重试。
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, truncate(e.body, 200))
}

// newBackOff 按配置构建指数退避，不加随机抖动。
func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.Backoff
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	return bo
}

// query 发送 POST；非 200 时先用 GET 重置服务再按退避重试，
// 请求失败或响应无法解析时不重试。
func (c *Client) query(ctx context.Context, q call) (*core.FlowResult, error) {
	if q.empty {
		return core.EmptyFlowResult(), nil
	}

	attempt := 0
	op := func() (*core.FlowResult, error) {
		defer func() { attempt++ }()
		status, body, err := c.post(ctx, q.script)
		if err != nil {
			return nil, backoff.Permanent(core.WrapDomainError(core.ModuleGraph, core.ErrorCodeUnavailable,
				fmt.Sprintf("graph: %s request failed", q.name), err))
		}
		if status != http.StatusOK {
			c.logger.WarnContext(ctx, "graph query failed, resetting with GET",
				"script", q.name, "status", status, "attempt", attempt, "body", truncate(body, 200))
			c.hiccup(ctx, q.hiccup)
			return nil, &statusError{status: status, body: body}
		}
		res, err := parse(body)
		if err != nil {
			return nil, backoff.Permanent(core.WrapDomainError(core.ModuleGraph, core.ErrorCodeInternalError,
				fmt.Sprintf("graph: %s response", q.name), err))
		}
		return res, nil
	}

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.cfg.MaxRetries)+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(error, time.Duration) { metrics.RecordGraphRetry(q.name) }),
	)
	if err == nil {
		return res, nil
	}

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	var se *statusError
	if errors.As(err, &se) {
		return core.EmptyFlowResult(), core.NewDomainError(core.ModuleGraph, core.ErrorCodeUnavailable,
			fmt.Sprintf("graph: %s failed after %d retries (status %d)", q.name, c.cfg.MaxRetries, se.status))
	}
	return core.EmptyFlowResult(), err
}

func (c *Client) post(ctx context.Context, script string) (int, []byte, error) {
	if err := c.wait(ctx); err != nil {
		return 0, nil, err
	}
	form := url.Values{"script": {script}, "load": {c.cfg.Load}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// hiccup 发送一次 GET 请求，忽略结果。
func (c *Client) hiccup(ctx context.Context, script string) {
	if err := c.wait(ctx); err != nil {
		return
	}
	form := url.Values{"script": {script}, "load": {c.cfg.Load}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+form.Encode(), nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "graph GET reset failed", "error", err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// parse 取 results[0] 作为 flow map，非数值的值被跳过。
func parse(body []byte) (*core.FlowResult, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("decode: empty results")
	}
	var first map[string]any
	if err := json.Unmarshal(resp.Results[0], &first); err != nil {
		return nil, fmt.Errorf("decode results[0]: %w", err)
	}

	fm := conv.ConvertMap(first, func(v any) (float64, bool) {
		f, ok := v.(float64)
		return f, ok
	})
	if fm == nil {
		fm = map[string]float64{}
	}
	return &core.FlowResult{FlowMap: fm, RelatedTopics: len(first)}, nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func langOf(lang string) string {
	if lang == "" {
		return core.DefaultLanguage
	}
	return lang
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

var _ core.FlowMapFetcher = (*Client)(nil)
