package filter

import (
	"context"

	"github.com/rushteam/sommelier/core"
)

// Filter 是候选约束的抽象接口，用于判断一款酒是否应从搜索空间中移除。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 wine 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, slot *core.Slot, wine *core.Wine) (bool, error)
}
