package pipeline

import (
	"context"

	"github.com/rushteam/sommelier/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall Kind = "recall" // 召回阶段：选簇、基准点、搜索空间
	KindFilter Kind = "filter" // 过滤阶段：剔除不符合约束的候选
	KindRank   Kind = "rank"   // 排序阶段：按代价函数选出一款酒
)

// Node 是 Pipeline 的最小可扩展单元。
// 每个 Node 读取槽位上前序阶段的结果，写入自己的结果；返回错误即中止该槽位。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		slot *core.Slot,
	) error
}
