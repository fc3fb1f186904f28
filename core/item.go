package core

import (
	"math"

	"github.com/rushteam/sommelier/pkg/utils"
)

// SlotMode 标记槽位类型。
type SlotMode string

const (
	SlotBet      SlotMode = "bet"      // 常规位：利用
	SlotWildcard SlotMode = "wildcard" // 探索位：离散度放大
)

// Slot 是单个推荐位在 Pipeline 中的承载结构：选簇 → 基准点 → 搜索空间 → 选酒。
// 每个 Node 读取前序阶段的结果并写入自己的结果；Labels 用于解释与观测。
type Slot struct {
	Position int
	Mode     SlotMode

	// Wildcard 为 true 时离散度乘以 Tuning.WildcardSpreadFactor
	Wildcard bool

	Cluster   int
	Spread    float64
	Benchmark []float64

	// Support 是基准采样时从该簇历史中均匀抽取的支撑记录
	Support *HistoryRecord

	Candidates []int

	Pick int
	Cost float64

	Labels map[string]utils.Label
}

func NewSlot(position int, mode SlotMode) *Slot {
	return &Slot{
		Position: position,
		Mode:     mode,
		Wildcard: mode == SlotWildcard,
		Cluster:  -1,
		Pick:     -1,
		Cost:     math.Inf(1),
		Labels:   make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (s *Slot) PutLabel(key string, lbl utils.Label) {
	if s.Labels == nil {
		s.Labels = make(map[string]utils.Label)
	}
	if old, ok := s.Labels[key]; ok {
		s.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	s.Labels[key] = lbl
}
