// Package model 提供推荐核心消费的两种聚类模型实现：
// Hard（K-Means 中心分配）与 Soft（EM 高斯混合）。
// 模型拟合不在本包范围内，模型从持久化的产物（YAML/JSON）加载。
package model

import (
	"fmt"

	"github.com/rushteam/sommelier/core"
)

// 编译期接口检查
var (
	_ core.HardClustering = (*Hard)(nil)
	_ core.SoftClustering = (*Soft)(nil)
)

func checkCluster(k, numClusters int) error {
	if k < 0 || k >= numClusters {
		return fmt.Errorf("%w: cluster %d out of range [0, %d)", core.ErrInvalidInput, k, numClusters)
	}
	return nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: catalog index %d out of range [0, %d)", core.ErrNotFound, i, n)
	}
	return nil
}

// checkPoints 校验一组点（中心/均值）非空且维度一致，返回维度。
func checkPoints(what string, points [][]float64) (int, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("%w: %s is empty", core.ErrInvalidInput, what)
	}
	dim := len(points[0])
	if dim == 0 {
		return 0, fmt.Errorf("%w: %s has zero dimension", core.ErrInvalidInput, what)
	}
	for k, p := range points {
		if len(p) != dim {
			return 0, fmt.Errorf("%w: %s[%d] has dimension %d, want %d", core.ErrInvalidInput, what, k, len(p), dim)
		}
	}
	return dim, nil
}

func clonePoints(points [][]float64) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = append([]float64(nil), p...)
	}
	return out
}
