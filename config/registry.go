package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/catflow/pipeline"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/rushteam/catflow/config/builders"
// 以触发内置 Node（fetch.flow、filter、rerank.catflow、rerank.topn）的 init 注册。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
type NodeBuilder = pipeline.NodeBuilder

// registry 是按名字注册的并发安全表，Node 构建器、fetcher、store 共用。
type registry[V any] struct {
	kind string
	mu   sync.RWMutex
	m    map[string]V
}

func newRegistry[V any](kind string) *registry[V] {
	return &registry[V]{kind: kind, m: make(map[string]V)}
}

func (r *registry[V]) set(name string, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = v
}

func (r *registry[V]) get(name string) (V, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.m[name]
	if !ok {
		return v, fmt.Errorf("%s %q not registered (registered: %v)", r.kind, name, r.namesLocked())
	}
	return v, nil
}

func (r *registry[V]) has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.m[name]
	return ok
}

func (r *registry[V]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *registry[V]) namesLocked() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var builders = newRegistry[NodeBuilder]("node type")

// Register 注册一种 Node 的构建逻辑，重复注册会覆盖。
// 建议在各组件的 init 中调用，例如：func init() { config.Register("rerank.topn", BuildTopNNode) }
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	builders.set(typeName, builder)
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序）。
func SupportedTypes() []string {
	return builders.names()
}

// DefaultFactory 返回包含所有已注册 Node 类型的 NodeFactory。
func DefaultFactory() *pipeline.NodeFactory {
	builders.mu.RLock()
	defer builders.mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, b := range builders.m {
		f.Register(typeName, b)
	}
	return f
}

// ValidatePipelineConfig 校验所有 node 类型均已注册，一次列出全部未知类型。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	var unknown []string
	for i, nc := range cfg.Pipeline.Nodes {
		switch {
		case nc.Type == "":
			unknown = append(unknown, fmt.Sprintf("#%d: <empty>", i))
		case !builders.has(nc.Type):
			unknown = append(unknown, fmt.Sprintf("#%d: %q", i, nc.Type))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unsupported node types %s (supported: %v)", strings.Join(unknown, ", "), SupportedTypes())
	}
	return nil
}

// BuildPipeline 校验并构建 Pipeline。
func BuildPipeline(cfg *pipeline.Config) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	return cfg.BuildPipeline(DefaultFactory())
}
