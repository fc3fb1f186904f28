package core

import (
	"fmt"
	"math"
	"sort"
)

// SparseVector 是酒评 TF-IDF 词频特征的稀疏表示。
// Indices 严格递增，Values 与 Indices 一一对应，Dim 为特征空间维度。
type SparseVector struct {
	Dim     int       `json:"dim" yaml:"dim"`
	Indices []int     `json:"indices" yaml:"indices"`
	Values  []float64 `json:"values" yaml:"values"`
}

// NewSparseVector 构造稀疏向量，会按下标排序并校验越界与重复。
func NewSparseVector(dim int, indices []int, values []float64) (SparseVector, error) {
	if len(indices) != len(values) {
		return SparseVector{}, fmt.Errorf("sparse vector: %d indices but %d values", len(indices), len(values))
	}
	type entry struct {
		idx int
		val float64
	}
	entries := make([]entry, len(indices))
	for i := range indices {
		if indices[i] < 0 || indices[i] >= dim {
			return SparseVector{}, fmt.Errorf("sparse vector: index %d out of range [0, %d)", indices[i], dim)
		}
		entries[i] = entry{idx: indices[i], val: values[i]}
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].idx < entries[b].idx })

	v := SparseVector{
		Dim:     dim,
		Indices: make([]int, 0, len(entries)),
		Values:  make([]float64, 0, len(entries)),
	}
	for i, e := range entries {
		if i > 0 && entries[i-1].idx == e.idx {
			return SparseVector{}, fmt.Errorf("sparse vector: duplicate index %d", e.idx)
		}
		v.Indices = append(v.Indices, e.idx)
		v.Values = append(v.Values, e.val)
	}
	return v, nil
}

// DenseToSparse 把稠密向量转换为稀疏向量（丢弃零值）。
func DenseToSparse(dense []float64) SparseVector {
	v := SparseVector{Dim: len(dense)}
	for i, x := range dense {
		if x != 0 {
			v.Indices = append(v.Indices, i)
			v.Values = append(v.Values, x)
		}
	}
	return v
}

// Dense 返回稠密表示。
func (v SparseVector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for i, idx := range v.Indices {
		out[idx] = v.Values[i]
	}
	return out
}

// Distance 返回与稠密点 p 的欧氏距离，不展开稀疏向量：
// ‖v−p‖² = ‖p‖² + Σ_{i∈nz} ((v_i−p_i)² − p_i²)
// ‖p‖² 需要遍历 p，整体仍是 O(dim)。
func (v SparseVector) Distance(p []float64) (float64, error) {
	if len(p) != v.Dim {
		return 0, fmt.Errorf("sparse vector: dimension %d does not match point dimension %d", v.Dim, len(p))
	}
	var sq float64
	for _, x := range p {
		sq += x * x
	}
	for i, idx := range v.Indices {
		d := v.Values[i] - p[idx]
		sq += d*d - p[idx]*p[idx]
	}
	if sq < 0 {
		// 浮点抵消
		sq = 0
	}
	return math.Sqrt(sq), nil
}
