package core

// Feedback 是用户对一次推荐的反馈：接受 +1，拒绝 -1。
type Feedback int

const (
	FeedbackReject Feedback = -1
	FeedbackAccept Feedback = 1
)

// HistoryRecord 是一条历史推荐记录，创建后不可变。
// ClusterScores 每个簇一个分值（硬聚类为 one-hot，软聚类为概率），长度即簇数 K。
type HistoryRecord struct {
	Feedback      Feedback  `json:"user_feedback"`
	ClusterScores []float64 `json:"cluster_scores"`
	Confidence    float64   `json:"confidence"`
	Features      []float64 `json:"features,omitempty"`
	Score         float64   `json:"score"`
	Price         float64   `json:"price"`
	Index         int       `json:"true_index"`
}

// DominantCluster 返回 ClusterScores 的 arg-max（并列取最小下标），空时返回 -1。
func (r *HistoryRecord) DominantCluster() int {
	return ArgMax(r.ClusterScores)
}

// Positive 判断是否为正反馈。
func (r *HistoryRecord) Positive() bool { return r.Feedback == FeedbackAccept }

// ArgMax 返回最大值下标，并列取最小下标；空切片返回 -1。
func ArgMax(xs []float64) int {
	if len(xs) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(xs); i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

// NewHardRecord 为硬聚类模型构造历史记录：簇分值为 one-hot，置信度恒为 1。
func NewHardRecord(w *Wine, cluster, numClusters int, fb Feedback) HistoryRecord {
	scores := make([]float64, numClusters)
	if cluster >= 0 && cluster < numClusters {
		scores[cluster] = 1
	}
	return HistoryRecord{
		Feedback:      fb,
		ClusterScores: scores,
		Confidence:    1,
		Features:      w.Features.Dense(),
		Score:         w.Score,
		Price:         w.Price,
		Index:         w.Index,
	}
}

// NewSoftRecord 为软聚类模型构造历史记录：簇分值为隶属度，置信度取最大隶属度。
func NewSoftRecord(w *Wine, membership []float64, fb Feedback) HistoryRecord {
	scores := append([]float64(nil), membership...)
	conf := 0.0
	if k := ArgMax(scores); k >= 0 {
		conf = scores[k]
	}
	return HistoryRecord{
		Feedback:      fb,
		ClusterScores: scores,
		Confidence:    conf,
		Features:      w.Features.Dense(),
		Score:         w.Score,
		Price:         w.Price,
		Index:         w.Index,
	}
}
