package filter

import (
	"context"

	"github.com/rushteam/sommelier/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉指定目录下标的酒款（下架、缺货等）。
type BlacklistFilter struct {
	indices map[int]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(indices []int) *BlacklistFilter {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return &BlacklistFilter{indices: set}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	_ *core.Slot,
	wine *core.Wine,
) (bool, error) {
	if wine == nil {
		return true, nil
	}
	_, ok := f.indices[wine.Index]
	return ok, nil
}

// SeenFilter 过滤掉用户反馈历史中已经出现过的酒款（无论接受还是拒绝）。
type SeenFilter struct{}

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	_ *core.Slot,
	wine *core.Wine,
) (bool, error) {
	if wine == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	for i := range rctx.History {
		if rctx.History[i].Index == wine.Index {
			return true, nil
		}
	}
	return false, nil
}
