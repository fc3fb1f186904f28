// Package store 提供 core.HistoryStore 与 core.CatalogStore 的实现。
//
// 注意：此包只包含实现，接口定义在 core 包。
//
//	var history core.HistoryStore = store.NewMemoryHistory()
//	var catalog core.CatalogStore = store.NewMemoryCatalog(wines)
package store

import (
	"fmt"
	"math"

	"github.com/goccy/go-json"

	"github.com/rushteam/sommelier/core"
)

// recordWire 是历史记录的序列化格式。
// JSON 无法表示 ±Inf，解析失败的价格/评分写为 null，读回时恢复为哨兵值。
type recordWire struct {
	Feedback      core.Feedback `json:"user_feedback"`
	ClusterScores []float64     `json:"cluster_scores"`
	Confidence    float64       `json:"confidence"`
	Features      []float64     `json:"features,omitempty"`
	Score         *float64      `json:"score"`
	Price         *float64      `json:"price"`
	Index         int           `json:"true_index"`
}

func finite(x float64) *float64 {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return nil
	}
	return &x
}

func encodeRecord(rec core.HistoryRecord) ([]byte, error) {
	return json.Marshal(recordWire{
		Feedback:      rec.Feedback,
		ClusterScores: rec.ClusterScores,
		Confidence:    rec.Confidence,
		Features:      rec.Features,
		Score:         finite(rec.Score),
		Price:         finite(rec.Price),
		Index:         rec.Index,
	})
}

func fromWire(w recordWire) (core.HistoryRecord, error) {
	if w.Feedback != core.FeedbackAccept && w.Feedback != core.FeedbackReject {
		return core.HistoryRecord{}, fmt.Errorf("%w: user_feedback must be 1 or -1, got %d", core.ErrInvalidInput, w.Feedback)
	}
	rec := core.HistoryRecord{
		Feedback:      w.Feedback,
		ClusterScores: w.ClusterScores,
		Confidence:    w.Confidence,
		Features:      w.Features,
		Score:         math.Inf(-1),
		Price:         math.Inf(1),
		Index:         w.Index,
	}
	if w.Score != nil {
		rec.Score = *w.Score
	}
	if w.Price != nil {
		rec.Price = *w.Price
	}
	return rec, nil
}

func decodeRecord(data []byte) (core.HistoryRecord, error) {
	var w recordWire
	if err := json.Unmarshal(data, &w); err != nil {
		return core.HistoryRecord{}, fmt.Errorf("%w: decode history record: %v", core.ErrInvalidInput, err)
	}
	return fromWire(w)
}
