package recall

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/sommelier/core"
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// rec 构造一条主簇为 cluster 的 one-hot 历史记录
func rec(cluster, k int, fb core.Feedback) core.HistoryRecord {
	scores := make([]float64, k)
	scores[cluster] = 1
	return core.HistoryRecord{Feedback: fb, ClusterScores: scores, Confidence: 1, Index: cluster}
}

func TestClusterSelector_Distribution(t *testing.T) {
	const k = 3
	history := []core.HistoryRecord{
		rec(0, k, core.FeedbackAccept),
		rec(0, k, core.FeedbackAccept),
		rec(1, k, core.FeedbackAccept),
		rec(1, k, core.FeedbackReject),
		rec(2, k, core.FeedbackReject),
	}
	s := NewClusterSelector(newRand(1))

	// pos=[2,1,0] neg=[0,1,1] num=[2,2,1]
	// w = [2·2/3·1, 2·1/3·1/2, 1·0·1/2] = [4/3, 1/3, 0] → [0.8, 0.2, 0]
	probs, err := s.Distribution(history)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.8, 0.2, 0}, probs, 1e-12)
}

func TestClusterSelector_SoftScoresUseArgMax(t *testing.T) {
	history := []core.HistoryRecord{
		{Feedback: core.FeedbackAccept, ClusterScores: []float64{0.1, 0.6, 0.3}},
		{Feedback: core.FeedbackAccept, ClusterScores: []float64{0.2, 0.7, 0.1}},
	}
	probs, err := NewClusterSelector(newRand(1)).Distribution(history)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, probs)
}

func TestClusterSelector_SinglePositiveCluster(t *testing.T) {
	const k = 20
	history := make([]core.HistoryRecord, 0, k)
	for i := 0; i < k; i++ {
		history = append(history, rec(7, k, core.FeedbackAccept))
	}
	s := NewClusterSelector(newRand(42))
	for i := 0; i < 200; i++ {
		c, err := s.Select(history)
		require.NoError(t, err)
		require.Equal(t, 7, c)
	}
}

func TestClusterSelector_Errors(t *testing.T) {
	s := NewClusterSelector(newRand(1))

	_, err := s.Select(nil)
	assert.True(t, core.IsEmptyHistory(err))

	_, err = s.Select([]core.HistoryRecord{rec(0, 3, core.FeedbackAccept), rec(0, 4, core.FeedbackAccept)})
	assert.True(t, core.IsInconsistentClusterCount(err))

	_, err = s.Select([]core.HistoryRecord{{Feedback: core.FeedbackAccept}})
	assert.True(t, core.IsInconsistentClusterCount(err))

	// 没有正反馈：pos/Σpos 为 NaN
	_, err = s.Select([]core.HistoryRecord{rec(0, 2, core.FeedbackReject), rec(1, 2, core.FeedbackReject)})
	assert.True(t, core.IsDegenerateDistribution(err))

	// 单簇同时有正负反馈：1 − neg/Σneg = 0，全部权重为零
	_, err = s.Select([]core.HistoryRecord{rec(0, 1, core.FeedbackAccept), rec(0, 1, core.FeedbackReject)})
	assert.True(t, core.IsDegenerateDistribution(err))
}

func TestClusterSelector_DistributionIsValid(t *testing.T) {
	gen := newRand(7)
	for trial := 0; trial < 200; trial++ {
		k := 2 + gen.IntN(10)
		var history []core.HistoryRecord
		for c := 0; c < k; c++ {
			n := 1 + gen.IntN(4)
			for j := 0; j < n; j++ {
				fb := core.FeedbackReject
				if gen.IntN(2) == 0 {
					fb = core.FeedbackAccept
				}
				history = append(history, rec(c, k, fb))
			}
		}
		history = append(history, rec(gen.IntN(k), k, core.FeedbackAccept))

		probs, err := NewClusterSelector(newRand(1)).Distribution(history)
		if err != nil {
			require.True(t, core.IsDegenerateDistribution(err), "trial %d: %v", trial, err)
			continue
		}
		require.Len(t, probs, k)
		assert.InDelta(t, 1.0, floats.Sum(probs), 1e-9, "trial %d", trial)
		for _, p := range probs {
			assert.GreaterOrEqual(t, p, 0.0)
		}
	}
}

func TestClusterSelector_Reproducible(t *testing.T) {
	history := []core.HistoryRecord{
		rec(0, 3, core.FeedbackAccept),
		rec(1, 3, core.FeedbackAccept),
		rec(2, 3, core.FeedbackAccept),
	}
	a := NewClusterSelector(newRand(99))
	b := NewClusterSelector(newRand(99))
	for i := 0; i < 50; i++ {
		ca, err := a.Select(history)
		require.NoError(t, err)
		cb, err := b.Select(history)
		require.NoError(t, err)
		require.Equal(t, ca, cb)
	}
}

func TestClusterSelector_Frequencies(t *testing.T) {
	history := []core.HistoryRecord{
		rec(0, 3, core.FeedbackAccept),
		rec(0, 3, core.FeedbackAccept),
		rec(1, 3, core.FeedbackAccept),
		rec(1, 3, core.FeedbackReject),
		rec(2, 3, core.FeedbackReject),
	}
	s := NewClusterSelector(newRand(3))
	counts := make([]int, 3)
	const n = 20000
	for i := 0; i < n; i++ {
		c, err := s.Select(history)
		require.NoError(t, err)
		counts[c]++
	}
	assert.InDelta(t, 0.8, float64(counts[0])/n, 0.02)
	assert.InDelta(t, 0.2, float64(counts[1])/n, 0.02)
	assert.Equal(t, 0, counts[2])
}
