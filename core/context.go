package core

import "github.com/rushteam/catflow/pkg/utils"

// DocumentContext 承载单篇文档的请求级信息，贯穿整个 Pipeline 透传。
type DocumentContext struct {
	DocID string // 文档标识（通常是标注文件名），用于日志/观测

	// Language 是图查询服务的语言代码，为空时使用 DefaultLanguage
	Language string

	// MaxTopics 透传给 FlowMapFetcher 的最大结果数，0 表示不限制
	MaxTopics int

	// Labels 是文档级标签，可驱动 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// NewDocumentContext 创建文档上下文。
func NewDocumentContext(docID, language string) *DocumentContext {
	return &DocumentContext{
		DocID:    docID,
		Language: language,
		Labels:   make(map[string]utils.Label),
		Params:   make(map[string]any),
	}
}

// Lang 返回有效的语言代码。
func (dctx *DocumentContext) Lang() string {
	if dctx == nil || dctx.Language == "" {
		return DefaultLanguage
	}
	return dctx.Language
}

// ID 返回文档标识，nil 安全。
func (dctx *DocumentContext) ID() string {
	if dctx == nil {
		return ""
	}
	return dctx.DocID
}

// PutLabel 写入文档级 Label。
func (dctx *DocumentContext) PutLabel(key string, lbl utils.Label) {
	if dctx.Labels == nil {
		dctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := dctx.Labels[key]; ok {
		dctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	dctx.Labels[key] = lbl
}

// GetLabel 获取文档级 Label。
func (dctx *DocumentContext) GetLabel(key string) (utils.Label, bool) {
	if dctx == nil || dctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := dctx.Labels[key]
	return lbl, ok
}
