package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/pipeline"
	"github.com/rushteam/sommelier/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器对 slot.Candidates 进行过滤。
// 如果任何一个过滤器返回 true，该酒款就会被移除；过滤器出错时整个槽位失败。
// 过滤后搜索空间为空返回 NoCandidates。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	slot *core.Slot,
) error {
	if len(n.Filters) == 0 || len(slot.Candidates) == 0 {
		return nil
	}

	out := make([]int, 0, len(slot.Candidates))
	for _, idx := range slot.Candidates {
		w, err := rctx.Catalog.Item(idx)
		if err != nil {
			return err
		}

		filtered := false
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, slot, w)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name(), err)
			}
			if ok {
				filtered = true
				// 记录过滤来源（用于调试/观测）
				slot.PutLabel("filtered", utils.IntLabel(idx, f.Name()))
				break
			}
		}
		if !filtered {
			out = append(out, idx)
		}
	}

	if len(out) == 0 {
		return fmt.Errorf("%w: all %d candidates filtered", core.ErrNoCandidates, len(slot.Candidates))
	}
	slot.Candidates = out
	return nil
}
