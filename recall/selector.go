package recall

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rushteam/sommelier/core"
)

// ClusterSelector 把反馈历史转换为簇上的概率分布并抽取一个簇。
//
// 每条历史记录按 ClusterScores 的 arg-max 归到一个簇，统计正反馈 pos[k]、负反馈 neg[k]
// 与总数 num[k]，权重为：
//
//	weight[k] = num[k] · (pos[k] / Σpos) · (1 − neg[k] / Σneg)
//
// Σneg 为 0 时按 1 计。这是一个乘性的利用启发式，不是严格的多臂老虎机算法。
type ClusterSelector struct {
	Rand *rand.Rand
}

func NewClusterSelector(rng *rand.Rand) *ClusterSelector {
	return &ClusterSelector{Rand: rng}
}

// Distribution 返回归一化后的簇分布（和为 1，无负值）。
func (s *ClusterSelector) Distribution(history []core.HistoryRecord) ([]float64, error) {
	if len(history) == 0 {
		return nil, core.ErrEmptyHistory
	}
	k := len(history[0].ClusterScores)
	if k == 0 {
		return nil, fmt.Errorf("%w: record 0 has no cluster scores", core.ErrInconsistentClusterCount)
	}

	pos := make([]float64, k)
	neg := make([]float64, k)
	num := make([]float64, k)
	for i := range history {
		r := &history[i]
		if len(r.ClusterScores) != k {
			return nil, fmt.Errorf("%w: record %d has %d scores, want %d",
				core.ErrInconsistentClusterCount, i, len(r.ClusterScores), k)
		}
		c := r.DominantCluster()
		if r.Positive() {
			pos[c]++
		} else {
			neg[c]++
		}
		num[c]++
	}

	posTotal := floats.Sum(pos)
	negTotal := floats.Sum(neg)
	if negTotal == 0 {
		negTotal = 1
	}

	weights := make([]float64, k)
	for c := range weights {
		weights[c] = num[c] * (pos[c] / posTotal) * (1 - neg[c]/negTotal)
	}
	return normalize(weights)
}

// Select 按 Distribution 抽取一个簇下标。
func (s *ClusterSelector) Select(history []core.HistoryRecord) (int, error) {
	probs, err := s.Distribution(history)
	if err != nil {
		return 0, err
	}
	return drawCategorical(probs, s.Rand), nil
}

// normalize 校验并归一化权重；全零、含 NaN/Inf 或负值时返回 DegenerateDistribution。
func normalize(weights []float64) ([]float64, error) {
	var sum float64
	for c, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, fmt.Errorf("%w: weight[%d] = %v", core.ErrDegenerateDistribution, c, w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: all cluster weights are zero", core.ErrDegenerateDistribution)
	}
	out := append([]float64(nil), weights...)
	floats.Scale(1/sum, out)
	return out, nil
}

// drawCategorical 从已归一化的分布中抽取一个下标。
func drawCategorical(probs []float64, rng *rand.Rand) int {
	// 只有一个非零项时直接返回，结果与随机源无关
	nonZero, last := 0, 0
	for i, p := range probs {
		if p > 0 {
			nonZero++
			last = i
		}
	}
	if nonZero == 1 {
		return last
	}
	var src rand.Source
	if rng != nil {
		src = rng
	}
	return int(distuv.NewCategorical(probs, src).Rand())
}
