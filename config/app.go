package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/pipeline"
	"github.com/rushteam/catflow/rexster"
	"github.com/rushteam/catflow/store"
)

// 缓存后端
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheLRU    = "lru"
)

// App 是 catflow 命令行的配置文件（YAML，.json 后缀按 JSON 解析）。
//
//	language: en
//	graph:
//	  endpoint: http://localhost:8182
//	  max_retries: 3
//	cache:
//	  backend: redis
//	  addr: localhost:6379
//	pipeline:
//	  name: catflow
//	  nodes:
//	    - type: fetch.flow
//	      config: {strategy: parallel, max_concurrent: 4}
//	    - type: rerank.catflow
type App struct {
	Language string `yaml:"language" json:"language"`
	Graph    Graph  `yaml:"graph" json:"graph"`
	Cache    Cache  `yaml:"cache" json:"cache"`

	pipeline.Config `yaml:",inline" json:",inline"`
}

// Graph 是图查询服务配置，Timeout 单位为秒，退避时间单位为毫秒。
type Graph struct {
	Endpoint      string  `yaml:"endpoint" json:"endpoint"`
	Graph         string  `yaml:"graph" json:"graph"`
	Timeout       int     `yaml:"timeout" json:"timeout"`
	MaxRetries    int     `yaml:"max_retries" json:"max_retries"`
	BackoffMS     int     `yaml:"backoff_ms" json:"backoff_ms"`
	MaxBackoffMS  int     `yaml:"max_backoff_ms" json:"max_backoff_ms"`
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
	MaxTopics     int     `yaml:"max_topics" json:"max_topics"`
}

// Cache 是 flow 缓存配置，TTL 单位为秒，0 表示不过期。
type Cache struct {
	Backend string `yaml:"backend" json:"backend"`
	Addr    string `yaml:"addr" json:"addr"`
	DB      int    `yaml:"db" json:"db"`
	TTL     int    `yaml:"ttl" json:"ttl"`
	Prefix  string `yaml:"prefix" json:"prefix"`
	// Size 是 lru 后端的容量，0 表示不限
	Size int `yaml:"size" json:"size"`
}

// Default 返回默认配置。
func Default() *App {
	return &App{
		Language: core.DefaultLanguage,
		Graph: Graph{
			Endpoint:     "http://localhost:8182",
			Graph:        rexster.DefaultGraph,
			Timeout:      int(rexster.DefaultTimeout / time.Second),
			MaxRetries:   rexster.DefaultMaxRetries,
			BackoffMS:    int(rexster.DefaultBackoff / time.Millisecond),
			MaxBackoffMS: int(rexster.DefaultMaxBackoff / time.Millisecond),
		},
		Cache: Cache{
			Backend: CacheNone,
			Addr:    "localhost:6379",
			TTL:     86400,
			Prefix:  "catflow",
		},
	}
}

// Load 读取配置文件，未出现的字段保持默认值。path 为空时返回默认配置。
func Load(path string) (*App, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML 解析 YAML 配置。
func ParseYAML(data []byte) (*App, error) {
	app := Default()
	if err := yaml.Unmarshal(data, app); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return app, app.Validate()
}

// ParseJSON 解析 JSON 配置。
func ParseJSON(data []byte) (*App, error) {
	app := Default()
	if err := json.Unmarshal(data, app); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return app, app.Validate()
}

// Validate 检查配置取值。
func (a *App) Validate() error {
	if a.Language == "" {
		return fmt.Errorf("language is required")
	}
	switch a.Cache.Backend {
	case "", CacheNone, CacheMemory, CacheRedis, CacheLRU:
	default:
		return fmt.Errorf("unknown cache backend %q (supported: none, memory, lru, redis)", a.Cache.Backend)
	}
	if a.Graph.MaxRetries < 0 {
		return fmt.Errorf("graph.max_retries must be >= 0")
	}
	if a.Graph.BackoffMS < 0 || a.Graph.MaxBackoffMS < 0 {
		return fmt.Errorf("graph.backoff_ms and graph.max_backoff_ms must be >= 0")
	}
	if a.Graph.MaxTopics < 0 {
		return fmt.Errorf("graph.max_topics must be >= 0")
	}
	return nil
}

// PipelineConfig 返回 pipeline 配置，未配置任何 node 时使用默认的 fetch.flow -> rerank.catflow。
func (a *App) PipelineConfig() *pipeline.Config {
	if len(a.Pipeline.Nodes) > 0 {
		cfg := a.Config
		if cfg.Pipeline.Name == "" {
			cfg.Pipeline.Name = "catflow"
		}
		return &cfg
	}
	return DefaultPipelineConfig()
}

// DefaultPipelineConfig 返回默认 pipeline：逐个 mention 拉取，再按 category flow 重排。
func DefaultPipelineConfig() *pipeline.Config {
	return &pipeline.Config{
		Pipeline: pipeline.Section{
			Name: "catflow",
			Nodes: []pipeline.NodeConfig{
				{Type: "fetch.flow", Config: map[string]interface{}{"fetcher": DefaultName}},
				{Type: "rerank.catflow", Config: map[string]interface{}{}},
			},
		},
	}
}

// RexsterConfig 转换为图查询客户端配置。
func (a *App) RexsterConfig() rexster.Config {
	return rexster.Config{
		Endpoint:      a.Graph.Endpoint,
		Graph:         a.Graph.Graph,
		Timeout:       time.Duration(a.Graph.Timeout) * time.Second,
		MaxRetries:    a.Graph.MaxRetries,
		Backoff:       time.Duration(a.Graph.BackoffMS) * time.Millisecond,
		MaxBackoff:    time.Duration(a.Graph.MaxBackoffMS) * time.Millisecond,
		RatePerSecond: a.Graph.RatePerSecond,
	}
}

// OpenStore 按缓存配置打开 Store；backend 为 none 时返回 nil。
func (a *App) OpenStore() (core.Store, error) {
	switch a.Cache.Backend {
	case "", CacheNone:
		return nil, nil
	case CacheMemory:
		return store.NewMemoryStore(), nil
	case CacheLRU:
		return store.NewLRUStore(a.Cache.Size, time.Duration(a.Cache.TTL)*time.Second), nil
	case CacheRedis:
		rs, err := store.NewRedisStore(a.Cache.Addr, a.Cache.DB)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", a.Cache.Backend)
	}
}
