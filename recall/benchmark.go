package recall

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rushteam/sommelier/core"
)

// Benchmark 是一次基准采样的结果：特征空间中的目标点，以及从该簇历史中抽取的支撑记录。
type Benchmark struct {
	Point   []float64
	Support *core.HistoryRecord
}

// BenchmarkSampler 为选中的簇生成基准点。
//
// spread 为 0 时直接返回簇中心；否则以中心为均值、spread 为标准差逐维独立采样。
// 注意：这是多元高斯的近似，协方差按各向同性标量处理，即使模型提供了完整矩阵也不做相关采样。
type BenchmarkSampler struct {
	Rand *rand.Rand
}

func NewBenchmarkSampler(rng *rand.Rand) *BenchmarkSampler {
	return &BenchmarkSampler{Rand: rng}
}

// SpreadFor 返回模型在某簇上的离散度：软聚类取协方差折算的标量，硬聚类为 0。
func SpreadFor(m core.ClusteringModel, cluster int) (float64, error) {
	switch mm := m.(type) {
	case core.SoftClustering:
		d, err := mm.Dispersion(cluster)
		if err != nil {
			return 0, err
		}
		return d.Spread(), nil
	case core.HardClustering:
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: %T", core.ErrUnsupportedModel, m)
	}
}

// Sample 生成基准点。至少要有一条历史记录属于 cluster，否则返回 EmptyClusterHistory。
func (s *BenchmarkSampler) Sample(
	history []core.HistoryRecord,
	cluster int,
	spread float64,
	m core.ClusteringModel,
) (*Benchmark, error) {
	if spread < 0 {
		return nil, fmt.Errorf("%w: negative spread %v", core.ErrInvalidInput, spread)
	}

	var members []int
	for i := range history {
		if history[i].DominantCluster() == cluster {
			members = append(members, i)
		}
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: cluster %d", core.ErrEmptyClusterHistory, cluster)
	}
	support := history[members[s.intN(len(members))]]

	mean, err := m.Centroid(cluster)
	if err != nil {
		return nil, err
	}
	if spread == 0 {
		return &Benchmark{Point: mean, Support: &support}, nil
	}

	var src rand.Source
	if s.Rand != nil {
		src = s.Rand
	}
	point := make([]float64, len(mean))
	for i, mu := range mean {
		point[i] = distuv.Normal{Mu: mu, Sigma: spread, Src: src}.Rand()
	}
	return &Benchmark{Point: point, Support: &support}, nil
}

func (s *BenchmarkSampler) intN(n int) int {
	if s.Rand == nil {
		return rand.IntN(n)
	}
	return s.Rand.IntN(n)
}
