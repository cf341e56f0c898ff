package flow

import (
	"fmt"

	"github.com/rushteam/catflow/core"
)

// DocumentFlow 是一篇文档折叠后的不可变 flow 摘要：
// 先收齐每个 mention 的 FlowMap，再一次性算出全文平均与 floor，
// 之后每个 mention 只读地基于它计算自己的上下文 flow。
type DocumentFlow struct {
	N      int          // mention 总数（含降级的 mention）
	Global core.FlowMap // 全文平均 flow
	Floor  float64      // MinFlowFloor

	own []core.FlowMap
}

// Summarize 折叠每个 mention 的 FlowMap（按 mention 顺序，降级者传 nil）。
func Summarize(maps []core.FlowMap, floorFactor float64) (*DocumentFlow, error) {
	global, err := GlobalAverage(maps)
	if err != nil {
		return nil, err
	}
	floor, err := MinFloor(global, floorFactor)
	if err != nil {
		return nil, err
	}
	own := make([]core.FlowMap, len(maps))
	copy(own, maps)
	return &DocumentFlow{
		N:      len(maps),
		Global: global,
		Floor:  floor,
		own:    own,
	}, nil
}

// Context 返回第 i 个 mention 的留一上下文 flow。
func (d *DocumentFlow) Context(i int) (core.FlowMap, error) {
	if i < 0 || i >= len(d.own) {
		return nil, core.NewDomainError(core.ModuleFlow, core.ErrorCodeInvalidInput,
			fmt.Sprintf("flow: mention index %d out of range [0,%d)", i, len(d.own)))
	}
	return LeaveOneOut(d.Global, d.own[i], d.N)
}

// Score 返回 finalScore × max(floor, contextFlow)。
func (d *DocumentFlow) Score(finalScore, contextFlow float64) float64 {
	return finalScore * max(d.Floor, contextFlow)
}
