// Package sommelier 是基于聚类的酒款推荐工具包。
//
// 设计要点：
// - Pipeline-first: 每个推荐位由 Node 串联（选簇 → 基准点 → 搜索空间 → 过滤 → 选酒）
// - Labels-first: 每个推荐结果带 labels（slot / cluster / support / cost），便于解释与观测
// - 模型可扩展: 硬聚类（K-Means）与软聚类（EM/GMM）通过 model 包的 kind 注册表加载
package sommelier

import (
	"github.com/rushteam/sommelier/pipeline"
	"github.com/rushteam/sommelier/recommend"
)

// 轻量 facade：便于用户直接 import "sommelier" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

type Engine = recommend.Engine
type Batch = recommend.Batch
type Pick = recommend.Pick

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
)

// NewEngine 创建推荐引擎，见 recommend.NewEngine。
var NewEngine = recommend.NewEngine
