package filter

import (
	"context"

	"github.com/rushteam/catflow/core"
	"github.com/rushteam/catflow/pkg/dsl"
)

// ExprFilter 用 CEL 表达式决定保留哪些候选：表达式为 false 的候选被过滤。
//
//	&filter.ExprFilter{Expr: `cand.final_score >= 0.05 && !cand.uri.startsWith("List_of_")`}
type ExprFilter struct {
	Expr string
}

// NewExprFilter 创建表达式过滤器，并提前编译以尽早暴露语法错误。
func NewExprFilter(expr string) (*ExprFilter, error) {
	if _, err := dsl.Compile(expr); err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: expr}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	dctx *core.DocumentContext,
	m *core.Mention,
	c *core.Candidate,
) (bool, error) {
	keep, err := dsl.NewEval(c, m, dctx).Evaluate(f.Expr)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
