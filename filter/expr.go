package filter

import (
	"context"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/pkg/dsl"
	"github.com/rushteam/sommelier/pkg/utils"
)

// ExprFilter 用 CEL 表达式约束候选：表达式为 true 的酒款保留，其余过滤。
// 例如 `wine.price <= 40.0` 或 `!wine.malformed_score`。
type ExprFilter struct {
	Expr *dsl.Expr
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string) (*ExprFilter, error) {
	e, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{Expr: e}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	slot *core.Slot,
	wine *core.Wine,
) (bool, error) {
	if wine == nil {
		return true, nil
	}
	var labels map[string]utils.Label
	if slot != nil {
		labels = slot.Labels
	}
	keep, err := f.Expr.Eval(wine, rctx, labels)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
