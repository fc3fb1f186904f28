package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/rushteam/sommelier/core"
)

// membershipTolerance 是隶属度行和偏离 1 的容忍度
const membershipTolerance = 1e-6

// Soft 是高斯混合（EM）软聚类模型。
// 每个目录条目有一行隶属度（和为 1）；其主簇（arg-max）在构造时预先计算。
type Soft struct {
	name        string
	weights     []float64
	means       [][]float64
	dispersions []core.Dispersion
	membership  [][]float64
	dominant    []int
	dim         int

	// normals 仅对矩阵协方差的簇非空，用于计算对数密度
	normals []*distmv.Normal
}

// NewSoft 创建软聚类模型。
//   - weights: 混合权重，nil 表示均匀；会被归一化
//   - means: 每簇均值
//   - dispersions: 每簇离散度（标量方差或协方差矩阵）
//   - membership: 每个目录条目一行，每簇一列
func NewSoft(weights []float64, means [][]float64, dispersions []core.Dispersion, membership [][]float64) (*Soft, error) {
	dim, err := checkPoints("means", means)
	if err != nil {
		return nil, err
	}
	k := len(means)

	if weights == nil {
		weights = make([]float64, k)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != k {
		return nil, fmt.Errorf("%w: %d weights for %d clusters", core.ErrInvalidInput, len(weights), k)
	}
	w := append([]float64(nil), weights...)
	for i, x := range w {
		if x < 0 || math.IsNaN(x) {
			return nil, fmt.Errorf("%w: weight[%d] = %v", core.ErrInvalidInput, i, x)
		}
	}
	sum := floats.Sum(w)
	if sum <= 0 {
		return nil, fmt.Errorf("%w: mixture weights sum to zero", core.ErrInvalidInput)
	}
	floats.Scale(1/sum, w)

	if len(dispersions) != k {
		return nil, fmt.Errorf("%w: %d dispersions for %d clusters", core.ErrInvalidInput, len(dispersions), k)
	}
	normals := make([]*distmv.Normal, k)
	for c, d := range dispersions {
		if d.Matrix == nil {
			if d.Variance <= 0 || math.IsNaN(d.Variance) {
				return nil, fmt.Errorf("%w: cluster %d variance %v must be positive", core.ErrInvalidInput, c, d.Variance)
			}
			continue
		}
		if d.Matrix.SymmetricDim() != dim {
			return nil, fmt.Errorf("%w: cluster %d covariance is %dx%d, want %dx%d",
				core.ErrInvalidInput, c, d.Matrix.SymmetricDim(), d.Matrix.SymmetricDim(), dim, dim)
		}
		n, ok := distmv.NewNormal(means[c], d.Matrix, nil)
		if !ok {
			return nil, fmt.Errorf("%w: cluster %d covariance is not positive definite", core.ErrInvalidInput, c)
		}
		normals[c] = n
	}

	dominant := make([]int, len(membership))
	rows := make([][]float64, len(membership))
	for i, row := range membership {
		if len(row) != k {
			return nil, fmt.Errorf("%w: membership[%d] has %d columns, want %d", core.ErrInvalidInput, i, len(row), k)
		}
		for _, p := range row {
			if p < 0 || p > 1 || math.IsNaN(p) {
				return nil, fmt.Errorf("%w: membership[%d] has value %v outside [0, 1]", core.ErrInvalidInput, i, p)
			}
		}
		if s := floats.Sum(row); math.Abs(s-1) > membershipTolerance {
			return nil, fmt.Errorf("%w: membership[%d] sums to %v", core.ErrInvalidInput, i, s)
		}
		rows[i] = append([]float64(nil), row...)
		dominant[i] = core.ArgMax(row)
	}

	return &Soft{
		name:        "em",
		weights:     w,
		means:       clonePoints(means),
		dispersions: append([]core.Dispersion(nil), dispersions...),
		membership:  rows,
		dominant:    dominant,
		dim:         dim,
		normals:     normals,
	}, nil
}

func (m *Soft) Name() string     { return m.name }
func (m *Soft) NumClusters() int { return len(m.means) }
func (m *Soft) Dim() int         { return m.dim }
func (m *Soft) Len() int         { return len(m.membership) }

func (m *Soft) Centroid(cluster int) ([]float64, error) {
	if err := checkCluster(cluster, len(m.means)); err != nil {
		return nil, err
	}
	return append([]float64(nil), m.means[cluster]...), nil
}

func (m *Soft) Membership(index int) ([]float64, error) {
	if err := checkIndex(index, len(m.membership)); err != nil {
		return nil, err
	}
	return append([]float64(nil), m.membership[index]...), nil
}

func (m *Soft) DominantCluster(index int) (int, error) {
	if err := checkIndex(index, len(m.dominant)); err != nil {
		return 0, err
	}
	return m.dominant[index], nil
}

func (m *Soft) Dispersion(cluster int) (core.Dispersion, error) {
	if err := checkCluster(cluster, len(m.dispersions)); err != nil {
		return core.Dispersion{}, err
	}
	return m.dispersions[cluster], nil
}

// Predict 计算点在各簇上的后验概率：p(k|x) ∝ w_k · N(x; μ_k, Σ_k)。
// 在对数域归一化，避免高维下密度下溢。
func (m *Soft) Predict(point []float64) ([]float64, error) {
	if len(point) != m.dim {
		return nil, fmt.Errorf("%w: point dimension %d, want %d", core.ErrInvalidInput, len(point), m.dim)
	}
	logp := make([]float64, len(m.means))
	for k := range m.means {
		lw := math.Log(m.weights[k])
		if n := m.normals[k]; n != nil {
			logp[k] = lw + n.LogProb(point)
			continue
		}
		v := m.dispersions[k].Variance
		d := floats.Distance(point, m.means[k], 2)
		logp[k] = lw - 0.5*(float64(m.dim)*math.Log(2*math.Pi*v)+d*d/v)
	}
	lse := floats.LogSumExp(logp)
	if math.IsInf(lse, -1) || math.IsNaN(lse) {
		return nil, fmt.Errorf("%w: point has zero likelihood under every cluster", core.ErrDegenerateDistribution)
	}
	for k := range logp {
		logp[k] = math.Exp(logp[k] - lse)
	}
	return logp, nil
}
