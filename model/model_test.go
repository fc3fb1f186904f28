package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/sommelier/core"
)

func TestNewHard(t *testing.T) {
	m, err := NewHard([]int{0, 1, 1, 0}, [][]float64{{0, 0}, {1, 1}})
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumClusters())
	assert.Equal(t, 2, m.Dim())
	assert.Equal(t, 4, m.Len())
	assert.Equal(t, []int{1, 2}, m.Members(1))

	c, err := m.ClusterOf(2)
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	_, err = m.ClusterOf(4)
	assert.True(t, core.IsNotFound(err))

	centroid, err := m.Centroid(1)
	require.NoError(t, err)
	centroid[0] = 42 // 返回副本
	again, _ := m.Centroid(1)
	assert.Equal(t, []float64{1, 1}, again)

	_, err = m.Centroid(2)
	assert.True(t, core.IsInvalidInput(err))
}

func TestNewHard_Invalid(t *testing.T) {
	_, err := NewHard([]int{0, 3}, [][]float64{{0}, {1}})
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewHard([]int{0}, nil)
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewHard([]int{0}, [][]float64{{0, 1}, {1}})
	assert.True(t, core.IsInvalidInput(err))
}

func sphericalSoft(t *testing.T) *Soft {
	t.Helper()
	m, err := NewSoft(
		nil,
		[][]float64{{0, 0}, {10, 0}, {0, 10}},
		[]core.Dispersion{{Variance: 1}, {Variance: 1}, {Variance: 1}},
		[][]float64{
			{0.9, 0.05, 0.05},
			{0.1, 0.8, 0.1},
			{0.2, 0.2, 0.6},
			{0.4, 0.6, 0},
		},
	)
	require.NoError(t, err)
	return m
}

func TestSoft_MembershipAndDominant(t *testing.T) {
	m := sphericalSoft(t)
	assert.Equal(t, 3, m.NumClusters())
	assert.Equal(t, 4, m.Len())

	for i, want := range []int{0, 1, 2, 1} {
		got, err := m.DominantCluster(i)
		require.NoError(t, err)
		assert.Equal(t, want, got, "row %d", i)
	}

	row, err := m.Membership(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.8, 0.1}, row)

	d, err := m.Dispersion(2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Spread())
}

func TestSoft_Predict(t *testing.T) {
	m := sphericalSoft(t)

	p, err := m.Predict([]float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, floats.Sum(p), 1e-9)
	assert.Equal(t, 0, core.ArgMax(p))
	assert.Greater(t, p[0], 0.999)

	// 两个中心的中点：前两簇概率相等
	mid, err := m.Predict([]float64{5, 0})
	require.NoError(t, err)
	assert.InDelta(t, mid[0], mid[1], 1e-9)

	_, err = m.Predict([]float64{1})
	assert.True(t, core.IsInvalidInput(err))
}

func TestSoft_PredictFullCovariance(t *testing.T) {
	eye := mat.NewSymDense(2, []float64{1, 0, 0, 1})
	full, err := NewSoft(
		[]float64{2, 2},
		[][]float64{{0, 0}, {10, 0}},
		[]core.Dispersion{{Matrix: eye}, {Matrix: eye}},
		[][]float64{{1, 0}},
	)
	require.NoError(t, err)

	spherical, err := NewSoft(
		nil,
		[][]float64{{0, 0}, {10, 0}},
		[]core.Dispersion{{Variance: 1}, {Variance: 1}},
		[][]float64{{1, 0}},
	)
	require.NoError(t, err)

	x := []float64{3, 1}
	pf, err := full.Predict(x)
	require.NoError(t, err)
	ps, err := spherical.Predict(x)
	require.NoError(t, err)
	// 单位矩阵协方差与单位方差等价
	assert.InDeltaSlice(t, ps, pf, 1e-9)
}

func TestNewSoft_Invalid(t *testing.T) {
	means := [][]float64{{0}, {1}}
	disp := []core.Dispersion{{Variance: 1}, {Variance: 1}}

	_, err := NewSoft(nil, means, disp, [][]float64{{0.5, 0.4}})
	assert.True(t, core.IsInvalidInput(err), "row does not sum to 1")

	_, err = NewSoft(nil, means, disp, [][]float64{{1}})
	assert.True(t, core.IsInvalidInput(err), "wrong column count")

	_, err = NewSoft(nil, means, []core.Dispersion{{Variance: 0}, {Variance: 1}}, nil)
	assert.True(t, core.IsInvalidInput(err), "zero variance")

	_, err = NewSoft([]float64{1}, means, disp, nil)
	assert.True(t, core.IsInvalidInput(err), "weight count")

	notPD := mat.NewSymDense(1, []float64{-1})
	_, err = NewSoft(nil, means, []core.Dispersion{{Matrix: notPD}, {Variance: 1}}, nil)
	assert.True(t, core.IsInvalidInput(err), "covariance not positive definite")
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_HardYAML(t *testing.T) {
	path := writeFile(t, "kmeans.yaml", `
kind: hard
assignments: [0, 1, 1]
centroids:
  - [0.0, 0.0]
  - [1.0, 1.0]
`)
	m, err := Load(path)
	require.NoError(t, err)
	hard, ok := m.(core.HardClustering)
	require.True(t, ok)
	c, err := hard.ClusterOf(1)
	require.NoError(t, err)
	assert.Equal(t, 1, c)
}

func TestLoad_SoftJSON(t *testing.T) {
	path := writeFile(t, "em.json", `{
  "kind": "em",
  "means": [[0, 0], [4, 4]],
  "covariance_type": "full",
  "full_covariances": [[[1, 0], [0, 1]], [[2, 0], [0, 2]]],
  "membership": [[0.7, 0.3], [0.1, 0.9]]
}`)
	m, err := Load(path)
	require.NoError(t, err)
	soft, ok := m.(core.SoftClustering)
	require.True(t, ok)
	d, err := soft.Dispersion(1)
	require.NoError(t, err)
	assert.Equal(t, 2.0, d.Spread())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeFile(t, "m.toml", "kind = 'hard'"))
	assert.True(t, core.IsInvalidInput(err))

	_, err = Load(writeFile(t, "m.yaml", "kind: spectral\n"))
	assert.True(t, core.IsUnsupportedModel(err))

	_, err = Load(writeFile(t, "m.yaml", "kind: soft\nmeans: [[0]]\ncovariance_type: diag\n"))
	assert.True(t, core.IsInvalidInput(err))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSupportedKinds(t *testing.T) {
	assert.Equal(t, []string{"em", "hard", "kmeans", "soft"}, SupportedKinds())
}
