package rank

import (
	"context"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/pipeline"
	"github.com/rushteam/sommelier/pkg/utils"
)

// SelectNode 是 Pipeline 的最后一步：在 slot.Candidates 中选出一款酒。
// - 写入 slot.Pick / slot.Cost
// - 写入 labels：pick、cost；评分无法解析的酒胜出时额外写入 malformed_score
//
// 排除集合由引擎在槽位之间累积，这里只读。
type SelectNode struct {
	Selector *WineSelector
}

func (n *SelectNode) Name() string        { return "rank.select" }
func (n *SelectNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SelectNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	slot *core.Slot,
) error {
	idx, cost, err := n.Selector.Select(slot.Benchmark, slot.Candidates, rctx.Catalog, rctx.Excluded)
	if err != nil {
		return err
	}
	slot.Pick = idx
	slot.Cost = cost
	slot.PutLabel("pick", utils.IntLabel(idx, "rank"))
	slot.PutLabel("cost", utils.FloatLabel(cost, "rank"))

	w, err := rctx.Catalog.Item(idx)
	if err != nil {
		return err
	}
	if w.MalformedScore() {
		slot.PutLabel("malformed_score", utils.StringLabel("true", "rank"))
	}
	return nil
}
