package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/catflow/core"
)

// Pipeline 把一篇文档的重排拆成可组合的 Node 链。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行各 Node；任一 Node 出错即中断，不返回部分结果。
func (p *Pipeline) Run(
	ctx context.Context,
	dctx *core.DocumentContext,
	mentions []*core.Mention,
) ([]*core.Mention, error) {
	cur := mentions
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, dctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
