// Package flow 实现文档级 category flow 的聚合：
// 全文平均 flow（加法遍）、每个 mention 的留一上下文 flow（减法遍）与 floor。
package flow

import (
	"math"

	"github.com/rushteam/catflow/core"
)

// Op 是聚合时的合并算子。
type Op int

const (
	// Add 把来源值累加进累加器
	Add Op = iota
	// Sub 从累加器中扣除来源值
	Sub
)

func (op Op) String() string {
	switch op {
	case Add:
		return "add"
	case Sub:
		return "sub"
	default:
		return "unknown"
	}
}

func (op Op) apply(acc, v float64) float64 {
	if op == Sub {
		return acc - v
	}
	return acc + v
}

// Lookup 是 FlowMap 上的全函数：缺失的 key 返回 0.0。
func Lookup(m core.FlowMap, key string) float64 {
	if m == nil {
		return 0
	}
	return m[key]
}

// Accumulate 返回 acc 的拷贝，并对任一来源中出现的每个 key 执行
// out[k] = op(out[k], src[k] / divisor)。来源中缺失的 key 不参与计算，acc 本身不被修改。
//
// divisor 是文档的 mention 数，必须为正，否则返回 core.ErrNoMentions。
func Accumulate(op Op, divisor int, acc core.FlowMap, sources ...core.FlowMap) (core.FlowMap, error) {
	if divisor <= 0 {
		return nil, core.ErrNoMentions
	}
	out := acc.Clone()
	d := float64(divisor)
	for _, src := range sources {
		for k, v := range src {
			out[k] = op.apply(Lookup(out, k), v/d)
		}
	}
	return out, nil
}

// GlobalAverage 计算全文平均 flow：G[k] = Σ maps[i][k] / N，N = len(maps)。
// 降级的 mention 以 nil/空 map 占位，同样计入 N。
func GlobalAverage(maps []core.FlowMap) (core.FlowMap, error) {
	return Accumulate(Add, len(maps), nil, maps...)
}

// LeaveOneOut 计算单个 mention 的上下文 flow：C[k] = G[k] - own[k] / n。
// 注意除数仍是全文 mention 数 n，而不是 n-1。
func LeaveOneOut(global, own core.FlowMap, n int) (core.FlowMap, error) {
	return Accumulate(Sub, n, global, own)
}

// MinFloor 返回 factor × min(global.values())。global 为空时 floor 无定义，返回 core.ErrEmptyDocumentFlow。
func MinFloor(global core.FlowMap, factor float64) (float64, error) {
	if len(global) == 0 {
		return 0, core.ErrEmptyDocumentFlow
	}
	lowest := math.Inf(1)
	for _, v := range global {
		if v < lowest {
			lowest = v
		}
	}
	return factor * lowest, nil
}
