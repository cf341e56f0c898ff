package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/catflow/core"
)

type stubNode struct {
	name string
	err  error
	fn   func([]*core.Mention) []*core.Mention
}

func (n *stubNode) Name() string { return n.name }
func (n *stubNode) Kind() Kind   { return KindPostProcess }

func (n *stubNode) Process(_ context.Context, _ *core.DocumentContext, ms []*core.Mention) ([]*core.Mention, error) {
	if n.err != nil {
		return nil, n.err
	}
	if n.fn != nil {
		return n.fn(ms), nil
	}
	return ms, nil
}

func TestPipelineRun(t *testing.T) {
	var order []string
	mark := func(name string) *stubNode {
		return &stubNode{name: name, fn: func(ms []*core.Mention) []*core.Mention {
			order = append(order, name)
			return ms
		}}
	}
	p := &Pipeline{Nodes: []Node{mark("first"), mark("second")}}
	in := []*core.Mention{{}, {}}
	out, err := p.Run(context.Background(), core.NewDocumentContext("doc", "en"), in)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len(out) = %d, want 2", len(out))
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want [first second]", order)
	}
}

func TestPipelineRunStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	p := &Pipeline{Nodes: []Node{
		&stubNode{name: "bad", err: boom},
		&stubNode{name: "after", fn: func(ms []*core.Mention) []*core.Mention { called = true; return ms }},
	}}
	out, err := p.Run(context.Background(), nil, []*core.Mention{{}})
	if !errors.Is(err, boom) {
		t.Fatalf("Run() err = %v, want boom", err)
	}
	if out != nil {
		t.Errorf("out = %v, want nil", out)
	}
	if called {
		t.Error("node after failing node should not run")
	}
}

func TestConfigBuildPipeline(t *testing.T) {
	yml := []byte(`
pipeline:
  name: demo
  nodes:
    - type: stub
      config:
        label: x
`)
	cfg, err := ParseYAML(yml)
	if err != nil {
		t.Fatalf("ParseYAML() error = %v", err)
	}

	f := NewNodeFactory()
	var gotLabel string
	f.Register("stub", func(c map[string]interface{}) (Node, error) {
		gotLabel, _ = c["label"].(string)
		return &stubNode{name: "stub"}, nil
	})
	if !f.Has("stub") || f.Has("missing") {
		t.Error("Has() mismatch")
	}

	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if p.Name != "demo" || len(p.Nodes) != 1 {
		t.Errorf("pipeline = %+v", p)
	}
	if gotLabel != "x" {
		t.Errorf("builder config label = %q, want x", gotLabel)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{Type: "unknown"})
	if _, err := cfg.BuildPipeline(f); err == nil {
		t.Error("expected error for unknown node type")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"pipeline.json": `{"pipeline":{"name":"j","nodes":[{"type":"stub","config":{"n":3}}]}}`,
		"pipeline.yaml": "pipeline:\n  name: j\n  nodes:\n    - type: stub\n      config: {n: 3}\n",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", name, err)
		}
		if cfg.Pipeline.Name != "j" || len(cfg.Pipeline.Nodes) != 1 || cfg.Pipeline.Nodes[0].Type != "stub" {
			t.Errorf("%s: cfg = %+v", name, cfg)
		}
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
