package recall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/model"
)

func TestSearchSpaceBuilder_Hard(t *testing.T) {
	// 10 个条目，其中 3 个在簇 2
	assignments := []int{0, 2, 1, 0, 2, 1, 1, 0, 2, 0}
	m, err := model.NewHard(assignments, [][]float64{{0}, {1}, {2}})
	require.NoError(t, err)

	b := NewSearchSpaceBuilder(DefaultAmbiguityThreshold)
	got, err := b.Build(m, []float64{2}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 8}, got)

	// 幂等
	again, err := b.Build(m, []float64{2}, 2)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	_, err = b.Build(m, []float64{2}, 3)
	assert.True(t, core.IsInvalidInput(err))
}

func TestSearchSpaceBuilder_HardEmptyCluster(t *testing.T) {
	m, err := model.NewHard([]int{0, 0}, [][]float64{{0}, {1}})
	require.NoError(t, err)
	got, err := NewSearchSpaceBuilder(0.2).Build(m, []float64{1}, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// softModel 三个一维簇，中心 0、10、20，单位方差。
func softModel(t *testing.T) *model.Soft {
	t.Helper()
	m, err := model.NewSoft(
		nil,
		[][]float64{{0}, {10}, {20}},
		[]core.Dispersion{{Variance: 1}, {Variance: 1}, {Variance: 1}},
		[][]float64{
			{0.9, 0.1, 0},
			{0.2, 0.8, 0},
			{0, 0.3, 0.7},
			{0.6, 0.4, 0},
			{0.05, 0.05, 0.9},
		},
	)
	require.NoError(t, err)
	return m
}

func TestSearchSpaceBuilder_SoftUnambiguous(t *testing.T) {
	m := softModel(t)
	b := NewSearchSpaceBuilder(DefaultAmbiguityThreshold)

	targets, err := b.TargetClusters(m, []float64{0}, 1)
	require.NoError(t, err)
	// 软聚类按基准点后验选簇，忽略传入的 cluster
	assert.Equal(t, []int{0}, targets)

	got, err := b.Build(m, []float64{0}, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, got)
}

func TestSearchSpaceBuilder_SoftAmbiguous(t *testing.T) {
	m := softModel(t)
	b := NewSearchSpaceBuilder(DefaultAmbiguityThreshold)

	// 15 在簇 1 与簇 2 的正中间，概率差为 0
	targets, err := b.TargetClusters(m, []float64{15}, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2}, targets)

	got, err := b.Build(m, []float64{15}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, got)

	// 阈值为 0 时不扩展
	strict := NewSearchSpaceBuilder(0)
	targets, err = strict.TargetClusters(m, []float64{15.5}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, targets)
}

func TestSearchSpaceBuilder_SoftSingleCluster(t *testing.T) {
	m, err := model.NewSoft(nil, [][]float64{{0}}, []core.Dispersion{{Variance: 1}}, [][]float64{{1}, {1}})
	require.NoError(t, err)
	got, err := NewSearchSpaceBuilder(0.2).Build(m, []float64{3}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)
}

type unknownModel struct{}

func (unknownModel) Name() string                    { return "unknown" }
func (unknownModel) NumClusters() int                { return 1 }
func (unknownModel) Dim() int                        { return 1 }
func (unknownModel) Len() int                        { return 0 }
func (unknownModel) Centroid(int) ([]float64, error) { return []float64{0}, nil }

func TestSearchSpaceBuilder_UnsupportedModel(t *testing.T) {
	_, err := NewSearchSpaceBuilder(0.2).Build(unknownModel{}, []float64{0}, 0)
	assert.True(t, core.IsUnsupportedModel(err))

	_, err = SpreadFor(unknownModel{}, 0)
	assert.True(t, core.IsUnsupportedModel(err))
}
