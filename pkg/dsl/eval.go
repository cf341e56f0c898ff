// Package dsl 提供基于 CEL 的候选表达式求值，用于配置驱动的候选过滤。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/catflow/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式：expr -> cel.Program
	programs sync.Map
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("cand", cel.DynType),
		cel.Variable("mention", cel.DynType),
		cel.Variable("doc", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Compile 编译并缓存表达式，可用于在加载配置时提前发现语法错误。
func Compile(expr string) (cel.Program, error) {
	if prg, ok := programs.Load(expr); ok {
		return prg.(cel.Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	programs.Store(expr, prg)
	return prg, nil
}

// Eval 是候选表达式解释器，使用 CEL (Common Expression Language) 实现。
//
// 可用变量：
//   - cand.uri / cand.final_score / cand.cat_flow / cand.cat_flow_score
//   - cand.labels.<key>（label 的 value，不存在时需先判断 `"key" in cand.labels`）
//   - mention.size：该 mention 的候选数
//   - doc.id / doc.lang
//
// 示例：
//   - `cand.final_score >= 0.1`
//   - `!cand.uri.startsWith("Category:")`
//   - `doc.lang == "en" && cand.uri.matches("^[A-Z0-9]")`
type Eval struct {
	cand    *core.Candidate
	mention *core.Mention
	dctx    *core.DocumentContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(cand *core.Candidate, mention *core.Mention, dctx *core.DocumentContext) *Eval {
	return &Eval{cand: cand, mention: mention, dctx: dctx}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。空表达式视为 true。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := Compile(expr)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(e.buildInput())
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	cand := map[string]interface{}{
		"uri":            "",
		"final_score":    0.0,
		"cat_flow":       0.0,
		"cat_flow_score": 0.0,
		"labels":         map[string]interface{}{},
	}
	if e.cand != nil {
		labels := make(map[string]interface{}, len(e.cand.Labels))
		for k, v := range e.cand.Labels {
			labels[k] = v.Value
		}
		cand["uri"] = e.cand.URI
		cand["final_score"] = e.cand.FinalScore
		cand["cat_flow"] = e.cand.CatFlow
		cand["cat_flow_score"] = e.cand.CatFlowScore
		cand["labels"] = labels
	}

	size := 0
	if e.mention != nil {
		size = len(e.mention.Candidates)
	}
	mention := map[string]interface{}{
		"size": size,
	}

	doc := map[string]interface{}{
		"id":   e.dctx.ID(),
		"lang": e.dctx.Lang(),
	}

	return map[string]interface{}{
		"cand":    cand,
		"mention": mention,
		"doc":     doc,
	}
}
