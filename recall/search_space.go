package recall

import (
	"fmt"
	"sort"

	"github.com/rushteam/sommelier/core"
)

// DefaultAmbiguityThreshold 是软聚类第一、二名概率差的默认阈值
const DefaultAmbiguityThreshold = 0.2

// SearchSpaceBuilder 枚举属于目标簇的目录下标，按模型类型分派：
//   - 软聚类：计算基准点的后验概率，总是纳入第一名簇；若第一、二名概率差小于 Threshold，
//     同时纳入第二名。候选为主簇（预计算的隶属度 arg-max）落在目标簇集合中的全部条目。
//   - 硬聚类：候选为簇分配恰好等于 cluster 的全部条目，没有模糊扩展。
//
// 返回的下标升序；相同输入总是得到相同输出。
type SearchSpaceBuilder struct {
	Threshold float64
}

func NewSearchSpaceBuilder(threshold float64) *SearchSpaceBuilder {
	return &SearchSpaceBuilder{Threshold: threshold}
}

// TargetClusters 返回搜索空间覆盖的簇（1 或 2 个，按概率降序）。
func (b *SearchSpaceBuilder) TargetClusters(m core.ClusteringModel, point []float64, cluster int) ([]int, error) {
	switch mm := m.(type) {
	case core.SoftClustering:
		probs, err := mm.Predict(point)
		if err != nil {
			return nil, err
		}
		order := make([]int, len(probs))
		for i := range order {
			order[i] = i
		}
		// 稳定排序：概率相同按簇下标升序
		sort.SliceStable(order, func(a, c int) bool { return probs[order[a]] > probs[order[c]] })
		targets := []int{order[0]}
		if len(order) > 1 && probs[order[0]]-probs[order[1]] < b.Threshold {
			targets = append(targets, order[1])
		}
		return targets, nil
	case core.HardClustering:
		if cluster < 0 || cluster >= mm.NumClusters() {
			return nil, fmt.Errorf("%w: cluster %d out of range [0, %d)", core.ErrInvalidInput, cluster, mm.NumClusters())
		}
		return []int{cluster}, nil
	default:
		return nil, fmt.Errorf("%w: %T", core.ErrUnsupportedModel, m)
	}
}

// Build 返回候选目录下标；结果可能为空（聚类产生了空簇），调用方应视为 NoCandidates。
func (b *SearchSpaceBuilder) Build(m core.ClusteringModel, point []float64, cluster int) ([]int, error) {
	targets, err := b.TargetClusters(m, point, cluster)
	if err != nil {
		return nil, err
	}
	want := make(map[int]struct{}, len(targets))
	for _, t := range targets {
		want[t] = struct{}{}
	}

	var clusterOf func(int) (int, error)
	switch mm := m.(type) {
	case core.SoftClustering:
		clusterOf = mm.DominantCluster
	case core.HardClustering:
		clusterOf = mm.ClusterOf
	}

	out := make([]int, 0)
	for i := 0; i < m.Len(); i++ {
		c, err := clusterOf(i)
		if err != nil {
			return nil, err
		}
		if _, ok := want[c]; ok {
			out = append(out, i)
		}
	}
	return out, nil
}
