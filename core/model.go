package core

import "gonum.org/v1/gonum/mat"

// ClusteringModel 是推荐核心消费的聚类模型抽象，簇下标为稠密整数 [0, K)。
// 具体能力由 HardClustering / SoftClustering 两个接口区分，
// 只在 BenchmarkSampler 与 SearchSpaceBuilder 边界做显式分派。
type ClusteringModel interface {
	// Name 返回模型名称（用于日志/标签）
	Name() string

	// NumClusters 返回簇数 K
	NumClusters() int

	// Dim 返回特征空间维度
	Dim() int

	// Len 返回模型覆盖的目录条目数
	Len() int

	// Centroid 返回簇中心（软聚类为均值）
	Centroid(cluster int) ([]float64, error)
}

// HardClustering 是基于中心分配的硬聚类（如 K-Means）：每款酒恰好属于一个簇。
type HardClustering interface {
	ClusteringModel

	// ClusterOf 返回目录条目的簇分配
	ClusterOf(index int) (int, error)
}

// SoftClustering 是概率混合模型（如 EM/GMM）：每款酒对每个簇有一个隶属概率。
type SoftClustering interface {
	ClusteringModel

	// Membership 返回目录条目的隶属度向量（每行和为 1）
	Membership(index int) ([]float64, error)

	// DominantCluster 返回目录条目隶属度的 arg-max（预先计算）
	DominantCluster(index int) (int, error)

	// Dispersion 返回簇的离散度（标量方差或协方差矩阵）
	Dispersion(cluster int) (Dispersion, error)

	// Predict 返回任意特征点在各簇上的后验概率
	Predict(point []float64) ([]float64, error)
}

// Dispersion 是簇的离散度：Matrix 为空时使用标量 Variance（球形协方差）。
type Dispersion struct {
	Variance float64
	Matrix   *mat.SymDense
}

// Spread 把离散度折算为各维独立高斯采样使用的标量。
// 矩阵协方差取对角线均值：采样是各维独立的近似，不做相关采样。
func (d Dispersion) Spread() float64 {
	if d.Matrix == nil {
		return d.Variance
	}
	n := d.Matrix.SymmetricDim()
	if n == 0 {
		return 0
	}
	var tr float64
	for i := 0; i < n; i++ {
		tr += d.Matrix.At(i, i)
	}
	return tr / float64(n)
}
