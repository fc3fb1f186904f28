package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/sommelier/core"
)

// Pipeline 把单个推荐位的逻辑拆成可组合的 Node 链：
// 选簇 → 基准点 → 搜索空间 → 过滤 → 选酒。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各 Node；任一 Node 失败即返回，错误带上 Node 名称。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	slot *core.Slot,
) error {
	for _, node := range p.Nodes {
		if err := node.Process(ctx, rctx, slot); err != nil {
			return fmt.Errorf("%s: %w", node.Name(), err)
		}
	}
	return nil
}

// Names 返回各 Node 名称（用于日志）。
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		names = append(names, n.Name())
	}
	return names
}
