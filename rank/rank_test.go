package rank

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/sommelier/core"
)

type sliceCatalog []*core.Wine

func (c sliceCatalog) Item(i int) (*core.Wine, error) {
	if i < 0 || i >= len(c) {
		return nil, core.ErrNotFound
	}
	return c[i], nil
}

func (c sliceCatalog) Size() int { return len(c) }

func wine(i int, price, score float64, dense ...float64) *core.Wine {
	return &core.Wine{Index: i, Price: price, Score: score, Features: core.DenseToSparse(dense)}
}

// basisCatalog 返回 n 款单位基向量酒，价格评分相同。
func basisCatalog(n int) sliceCatalog {
	cat := make(sliceCatalog, n)
	for i := range cat {
		v := make([]float64, n)
		v[i] = 1
		cat[i] = wine(i, 20, 90, v...)
	}
	return cat
}

func defaultSelector() *WineSelector {
	t := core.DefaultTuning()
	return NewWineSelector(t.Eta, t.Lambda)
}

func TestWineSelector_ClosestWins(t *testing.T) {
	cat := basisCatalog(5)
	idx, cost, err := defaultSelector().Select([]float64{0, 0, 0.9, 0, 0}, []int{0, 1, 2, 3, 4}, cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.InDelta(t, 100*0.1+1e-7*20.0/90, cost, 1e-9)
}

func TestWineSelector_QualityBreaksDistanceTie(t *testing.T) {
	cat := sliceCatalog{
		wine(0, 50, 90, 1, 0),
		wine(1, 10, 90, 1, 0),
	}
	idx, _, err := defaultSelector().Select([]float64{1, 0}, []int{0, 1}, cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestWineSelector_TieKeepsSearchSpaceOrder(t *testing.T) {
	cat := sliceCatalog{
		wine(0, 20, 90, 1, 0),
		wine(1, 20, 90, 1, 0),
		wine(2, 20, 90, 1, 0),
	}
	idx, _, err := defaultSelector().Select([]float64{0, 1}, []int{2, 0, 1}, cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestWineSelector_Exclusion(t *testing.T) {
	cat := basisCatalog(5)
	excluded := map[int]struct{}{0: {}, 1: {}, 2: {}, 3: {}}
	idx, _, err := defaultSelector().Select([]float64{1, 0, 0, 0, 0}, []int{0, 1, 2, 3, 4}, cat, excluded)
	require.NoError(t, err)
	assert.Equal(t, 4, idx)
	assert.Len(t, excluded, 4)
}

func TestWineSelector_Exhausted(t *testing.T) {
	cat := basisCatalog(5)
	_, _, err := defaultSelector().Select([]float64{0, 0, 0, 1, 0}, []int{3}, cat, map[int]struct{}{3: {}})
	assert.True(t, core.IsSearchSpaceExhausted(err))

	_, _, err = defaultSelector().Select([]float64{0, 0, 0, 1, 0}, nil, cat, nil)
	assert.True(t, core.IsSearchSpaceExhausted(err))
}

func TestWineSelector_MalformedScoreWins(t *testing.T) {
	cat := sliceCatalog{
		wine(0, 20, 90, 1, 0),
		wine(1, 20, math.Inf(-1), 0, 1),
	}
	assert.Equal(t, math.Inf(-1), Quality(cat[1]))

	idx, cost, err := defaultSelector().Select([]float64{1, 0}, []int{0, 1}, cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.True(t, math.IsInf(cost, -1))
}

func TestWineSelector_InfiniteCostStillSelectable(t *testing.T) {
	// 评分为 0：quality = +Inf
	cat := sliceCatalog{wine(0, 20, 0, 1)}
	idx, cost, err := defaultSelector().Select([]float64{1}, []int{0}, cat, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.True(t, math.IsInf(cost, 1))

	// 价格、评分都为 0：NaN 视为 +Inf
	c, err := defaultSelector().Cost(wine(0, 0, 0, 1), []float64{1})
	require.NoError(t, err)
	assert.True(t, math.IsInf(c, 1))
}

func TestWineSelector_ZeroEtaIgnoresQuality(t *testing.T) {
	s := NewWineSelector(0, 100)
	c, err := s.Cost(wine(0, 20, math.Inf(-1), 1, 0), []float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, c)
}

func TestWineSelector_DimensionMismatch(t *testing.T) {
	cat := basisCatalog(3)
	_, _, err := defaultSelector().Select([]float64{1, 0}, []int{0}, cat, nil)
	assert.True(t, core.IsInvalidInput(err))
}

func TestSelectNode(t *testing.T) {
	cat := sliceCatalog{
		wine(0, 20, 90, 1, 0),
		wine(1, 20, math.Inf(-1), 0, 1),
	}
	rctx := core.NewRecommendContext("u1", nil, cat, nil)
	n := &SelectNode{Selector: defaultSelector()}

	slot := core.NewSlot(0, core.SlotBet)
	slot.Benchmark = []float64{1, 0}
	slot.Candidates = []int{0, 1}
	require.NoError(t, n.Process(context.Background(), rctx, slot))
	assert.Equal(t, 1, slot.Pick)
	assert.Contains(t, slot.Labels, "malformed_score")

	rctx.Exclude(1)
	slot = core.NewSlot(1, core.SlotBet)
	slot.Benchmark = []float64{1, 0}
	slot.Candidates = []int{0, 1}
	require.NoError(t, n.Process(context.Background(), rctx, slot))
	assert.Equal(t, 0, slot.Pick)
	assert.Equal(t, "0", slot.Labels["pick"].Value)
	assert.NotContains(t, slot.Labels, "malformed_score")
}
