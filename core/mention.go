package core

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rushteam/catflow/pkg/conv"
	"github.com/rushteam/catflow/pkg/utils"
)

// JSON 字段名，与标注文件（*_annotations.json）保持一致。
const (
	fieldResource     = "resource"
	fieldCatFlowMap   = "cat_flow_map"
	fieldURI          = "uri"
	fieldFinalScore   = "finalScore"
	fieldCatFlow      = "cat_flow"
	fieldCatFlowScore = "cat_flow_score"
	fieldLabels       = "labels"
)

// FlowMap 是候选标识 -> flow 值的稀疏向量，缺失的 key 视为 0.0。
type FlowMap map[string]float64

// Get 返回 key 对应的 flow 值，缺失时返回 0.0。
func (m FlowMap) Get(key string) float64 {
	return m[key]
}

// Clone 返回一份独立拷贝，nil 会被拷贝为空 map。
func (m FlowMap) Clone() FlowMap {
	out := make(FlowMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Candidate 是一个 mention 的候选实体。
// URI 是去重 key；FinalScore 是上游给出的原始置信度；
// CatFlow / CatFlowScore 由重排写入。
type Candidate struct {
	URI          string
	FinalScore   float64
	CatFlow      float64
	CatFlowScore float64
	Labels       map[string]utils.Label

	// Extra 保存未识别的字段，写回文件时原样输出
	Extra map[string]json.RawMessage
}

func NewCandidate(uri string, finalScore float64) *Candidate {
	return &Candidate{
		URI:        uri,
		FinalScore: finalScore,
		Labels:     make(map[string]utils.Label),
	}
}

// HasURI 报告候选是否带有可用的标识字段。
func (c *Candidate) HasURI() bool {
	return c != nil && c.URI != ""
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Candidate) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// SetLabel 覆盖写入 Label，重复执行结果不变。
func (c *Candidate) SetLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	c.Labels[key] = lbl
}

func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Candidate{}

	if v, ok := raw[fieldURI]; ok {
		delete(raw, fieldURI)
		uri, err := decodeIdentifier(v)
		if err != nil {
			return fmt.Errorf("candidate uri: %w", err)
		}
		c.URI = uri
	}
	var err error
	if c.FinalScore, err = popFloat(raw, fieldFinalScore); err != nil {
		return err
	}
	if c.CatFlow, err = popFloat(raw, fieldCatFlow); err != nil {
		return err
	}
	if c.CatFlowScore, err = popFloat(raw, fieldCatFlowScore); err != nil {
		return err
	}
	if v, ok := raw[fieldLabels]; ok {
		delete(raw, fieldLabels)
		if err := json.Unmarshal(v, &c.Labels); err != nil {
			return fmt.Errorf("candidate labels: %w", err)
		}
	}
	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

func (c *Candidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+5)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.URI != "" {
		out[fieldURI] = c.URI
	}
	out[fieldFinalScore] = c.FinalScore
	out[fieldCatFlow] = c.CatFlow
	out[fieldCatFlowScore] = c.CatFlowScore
	if len(c.Labels) > 0 {
		out[fieldLabels] = c.Labels
	}
	return json.Marshal(out)
}

// Mention 是文档中一段待消歧的文本（标注文件中的一条 annotation）。
//
// Candidates 为 nil 表示上游没有给出候选列表；
// FlowMap 是按该 mention 去重后的候选集合拉取到的原始 flow 数据。
type Mention struct {
	Candidates []*Candidate
	FlowMap    FlowMap

	// Extra 保存未识别的字段（surfaceForm、offset 等），写回文件时原样输出
	Extra map[string]json.RawMessage
}

// UniqueURIs 返回去重后的候选标识，保持首次出现顺序。
// 任一候选缺少标识时返回 ok=false，此时整个 mention 视为无候选。
func (m *Mention) UniqueURIs() (uris []string, ok bool) {
	if m == nil || m.Candidates == nil {
		return nil, false
	}
	seen := make(map[string]struct{}, len(m.Candidates))
	uris = make([]string, 0, len(m.Candidates))
	for _, c := range m.Candidates {
		if !c.HasURI() {
			return nil, false
		}
		if _, dup := seen[c.URI]; dup {
			continue
		}
		seen[c.URI] = struct{}{}
		uris = append(uris, c.URI)
	}
	return uris, true
}

func (m *Mention) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Mention{}

	if v, ok := raw[fieldResource]; ok {
		delete(raw, fieldResource)
		if err := json.Unmarshal(v, &m.Candidates); err != nil {
			return fmt.Errorf("mention resource: %w", err)
		}
	}
	if v, ok := raw[fieldCatFlowMap]; ok {
		delete(raw, fieldCatFlowMap)
		var flows map[string]any
		if err := json.Unmarshal(v, &flows); err != nil {
			return fmt.Errorf("mention cat_flow_map: %w", err)
		}
		if flows != nil {
			m.FlowMap = FlowMap(conv.MapToFloat64(flows))
		}
	}
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

func (m *Mention) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Candidates != nil {
		out[fieldResource] = m.Candidates
	}
	if m.FlowMap != nil {
		out[fieldCatFlowMap] = map[string]float64(m.FlowMap)
	}
	return json.Marshal(out)
}

func popFloat(raw map[string]json.RawMessage, key string) (float64, error) {
	v, ok := raw[key]
	if !ok {
		return 0, nil
	}
	delete(raw, key)
	var val any
	if err := json.Unmarshal(v, &val); err != nil {
		return 0, fmt.Errorf("candidate %s: %w", key, err)
	}
	if val == nil {
		return 0, nil
	}
	f, ok := conv.ToFloat64(val)
	if !ok {
		return 0, fmt.Errorf("candidate %s: not a number: %s", key, string(v))
	}
	return f, nil
}

// decodeIdentifier 接受字符串或数字形式的标识。
func decodeIdentifier(v json.RawMessage) (string, error) {
	var val any
	if err := json.Unmarshal(v, &val); err != nil {
		return "", err
	}
	switch id := val.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(id), nil
	default:
		return "", fmt.Errorf("unsupported identifier %s", string(v))
	}
}
