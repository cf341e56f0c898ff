// Package annotation 读写实体标注文件（*_annotations.json）。
//
// 每个文件是一个 JSON 数组，元素是一条 mention：
//
//	[{"surfaceForm": "Paris", "resource": [{"uri": "Paris", "finalScore": 0.93}, ...]}, ...]
//
// 未识别的字段在读写之间原样保留。
package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rushteam/catflow/core"
)

const (
	// Suffix 是标注文件的文件名后缀
	Suffix = "_annotations.json"
	// RerankedSuffix 是重排结果默认的文件名后缀
	RerankedSuffix = "_reranked.json"
)

// Load 读取一个标注文件。
func Load(path string) ([]*core.Mention, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode 解析标注文件内容。
func Decode(data []byte) ([]*core.Mention, error) {
	var mentions []*core.Mention
	if err := json.Unmarshal(data, &mentions); err != nil {
		return nil, fmt.Errorf("decode annotations: %w", err)
	}
	return mentions, nil
}

// Save 写出标注文件。先写临时文件再 rename，避免中断时留下半个文件。
func Save(path string, mentions []*core.Mention) error {
	if mentions == nil {
		mentions = []*core.Mention{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(mentions); err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catflow-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Scan 列出目录下所有标注文件，按文件名排序。
func Scan(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Suffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// OutputPath 把 foo_annotations.json 映射为 foo<suffix>。
func OutputPath(path, suffix string) string {
	if suffix == "" {
		suffix = RerankedSuffix
	}
	return strings.TrimSuffix(path, Suffix) + suffix
}

// DocID 返回文件对应的文档标识（去掉目录与后缀）。
func DocID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), Suffix)
}

// URIs 返回文件中所有候选的标识，保持出现顺序并去重。
// 缺少标识的候选被跳过。
func URIs(mentions []*core.Mention) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range mentions {
		if m == nil {
			continue
		}
		for _, c := range m.Candidates {
			if !c.HasURI() {
				continue
			}
			if _, ok := seen[c.URI]; ok {
				continue
			}
			seen[c.URI] = struct{}{}
			out = append(out, c.URI)
		}
	}
	return out
}
