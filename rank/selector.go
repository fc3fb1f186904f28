package rank

import (
	"fmt"
	"math"

	"github.com/rushteam/sommelier/core"
)

// WineSelector 在搜索空间内按代价函数选酒，取代价最小者：
//
//	quality = price / score        （越低越好：便宜且高分）
//	cost    = Eta·quality + Lambda·‖features − benchmark‖
//
// 默认 Eta = 1e-7、Lambda = 100，距离项主导，价格/评分只在距离接近时起作用。
// 评分无法解析的酒 quality 记为 −Inf，因此代价最小，几乎必然被选中；
// 这是已知的偏差，这里保持原样，由引擎在日志中标记。
type WineSelector struct {
	Eta    float64
	Lambda float64
}

func NewWineSelector(eta, lambda float64) *WineSelector {
	return &WineSelector{Eta: eta, Lambda: lambda}
}

// Quality 返回 price/score；评分无法解析时为 −Inf。
func Quality(w *core.Wine) float64 {
	if w.MalformedScore() {
		return math.Inf(-1)
	}
	return w.Price / w.Score
}

// Cost 计算单款酒相对基准点的代价。NaN 视为 +Inf。
func (s *WineSelector) Cost(w *core.Wine, point []float64) (float64, error) {
	dist, err := w.Features.Distance(point)
	if err != nil {
		return 0, fmt.Errorf("%w: wine %d: %v", core.ErrInvalidInput, w.Index, err)
	}
	cost := s.Lambda * dist
	if s.Eta != 0 {
		cost += s.Eta * Quality(w)
	}
	if math.IsNaN(cost) {
		return math.Inf(1), nil
	}
	return cost, nil
}

// Select 返回 candidates 中未被排除、代价最小的目录下标及其代价。
// 代价相同取搜索空间中靠前者；代价为 +Inf 的候选仍可被选中。
// 全部候选都已排除时返回 SearchSpaceExhausted。该方法不修改 excluded。
func (s *WineSelector) Select(
	point []float64,
	candidates []int,
	catalog core.CatalogStore,
	excluded map[int]struct{},
) (int, float64, error) {
	best, bestCost := -1, math.Inf(1)
	for _, idx := range candidates {
		if _, ok := excluded[idx]; ok {
			continue
		}
		w, err := catalog.Item(idx)
		if err != nil {
			return -1, 0, err
		}
		cost, err := s.Cost(w, point)
		if err != nil {
			return -1, 0, err
		}
		if best == -1 || cost < bestCost {
			best, bestCost = idx, cost
		}
	}
	if best == -1 {
		return -1, 0, fmt.Errorf("%w: %d candidates, all excluded", core.ErrSearchSpaceExhausted, len(candidates))
	}
	return best, bestCost, nil
}
