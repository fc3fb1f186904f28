package model

import (
	"fmt"

	"github.com/rushteam/sommelier/core"
)

// Hard 是 K-Means 风格的硬聚类模型：每个目录条目恰好属于一个簇，置信度恒为 1。
// 硬聚类没有离散度概念，引擎对其使用 0 离散度（确定性基准点）。
type Hard struct {
	name        string
	assignments []int
	centroids   [][]float64
	dim         int
}

// NewHard 创建硬聚类模型。assignments 每个目录条目一项，值为簇下标；
// centroids 每簇一个中心，簇数 K = len(centroids)。
func NewHard(assignments []int, centroids [][]float64) (*Hard, error) {
	dim, err := checkPoints("centroids", centroids)
	if err != nil {
		return nil, err
	}
	k := len(centroids)
	for i, a := range assignments {
		if a < 0 || a >= k {
			return nil, fmt.Errorf("%w: assignment[%d] = %d out of range [0, %d)", core.ErrInvalidInput, i, a, k)
		}
	}
	return &Hard{
		name:        "kmeans",
		assignments: append([]int(nil), assignments...),
		centroids:   clonePoints(centroids),
		dim:         dim,
	}, nil
}

func (m *Hard) Name() string     { return m.name }
func (m *Hard) NumClusters() int { return len(m.centroids) }
func (m *Hard) Dim() int         { return m.dim }
func (m *Hard) Len() int         { return len(m.assignments) }

func (m *Hard) Centroid(cluster int) ([]float64, error) {
	if err := checkCluster(cluster, len(m.centroids)); err != nil {
		return nil, err
	}
	return append([]float64(nil), m.centroids[cluster]...), nil
}

func (m *Hard) ClusterOf(index int) (int, error) {
	if err := checkIndex(index, len(m.assignments)); err != nil {
		return 0, err
	}
	return m.assignments[index], nil
}

// Members 返回属于某簇的全部目录下标（升序）。
func (m *Hard) Members(cluster int) []int {
	var out []int
	for i, a := range m.assignments {
		if a == cluster {
			out = append(out, i)
		}
	}
	return out
}
