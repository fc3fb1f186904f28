package recall

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/pipeline"
	"github.com/rushteam/sommelier/pkg/utils"
)

// ClusterNode 根据反馈历史为槽位选簇。
type ClusterNode struct {
	Selector *ClusterSelector
}

func (n *ClusterNode) Name() string        { return "recall.cluster" }
func (n *ClusterNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *ClusterNode) Process(_ context.Context, rctx *core.RecommendContext, slot *core.Slot) error {
	c, err := n.Selector.Select(rctx.History)
	if err != nil {
		return err
	}
	slot.Cluster = c
	slot.PutLabel("cluster", utils.IntLabel(c, "recall"))
	return nil
}

// DemoClusterNode 是演示模式的选簇：常规位从 rctx.DemoClusters 中均匀抽取，
// 探索位从全部簇 [0, K) 中均匀抽取。
type DemoClusterNode struct {
	Rand *rand.Rand
}

func (n *DemoClusterNode) Name() string        { return "recall.demo_cluster" }
func (n *DemoClusterNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *DemoClusterNode) Process(_ context.Context, rctx *core.RecommendContext, slot *core.Slot) error {
	var c int
	if slot.Wildcard {
		c = n.intN(rctx.Model.NumClusters())
	} else {
		if len(rctx.DemoClusters) == 0 {
			return fmt.Errorf("%w: demo mode needs at least one cluster", core.ErrInvalidInput)
		}
		c = rctx.DemoClusters[n.intN(len(rctx.DemoClusters))]
	}
	slot.Cluster = c
	slot.PutLabel("cluster", utils.IntLabel(c, "recall.demo"))
	return nil
}

func (n *DemoClusterNode) intN(k int) int {
	if n.Rand == nil {
		return rand.IntN(k)
	}
	return n.Rand.IntN(k)
}

// BenchmarkNode 为槽位采样基准点；探索位的离散度乘以 SpreadFactor。
type BenchmarkNode struct {
	Sampler      *BenchmarkSampler
	SpreadFactor float64
}

func (n *BenchmarkNode) Name() string        { return "recall.benchmark" }
func (n *BenchmarkNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *BenchmarkNode) Process(_ context.Context, rctx *core.RecommendContext, slot *core.Slot) error {
	spread, err := SpreadFor(rctx.Model, slot.Cluster)
	if err != nil {
		return err
	}
	if slot.Wildcard {
		spread *= n.SpreadFactor
	}
	b, err := n.Sampler.Sample(rctx.History, slot.Cluster, spread, rctx.Model)
	if err != nil {
		return err
	}
	slot.Spread = spread
	slot.Benchmark = b.Point
	slot.Support = b.Support
	slot.PutLabel("support", utils.IntLabel(b.Support.Index, "recall"))
	return nil
}

// CentroidNode 直接以簇中心为基准点（演示模式，不做随机采样）。
type CentroidNode struct{}

func (n *CentroidNode) Name() string        { return "recall.centroid" }
func (n *CentroidNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *CentroidNode) Process(_ context.Context, rctx *core.RecommendContext, slot *core.Slot) error {
	mean, err := rctx.Model.Centroid(slot.Cluster)
	if err != nil {
		return err
	}
	slot.Spread = 0
	slot.Benchmark = mean
	return nil
}

// SearchSpaceNode 构建槽位的候选集合；为空时返回 NoCandidates。
type SearchSpaceNode struct {
	Builder *SearchSpaceBuilder
}

func (n *SearchSpaceNode) Name() string        { return "recall.search_space" }
func (n *SearchSpaceNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *SearchSpaceNode) Process(_ context.Context, rctx *core.RecommendContext, slot *core.Slot) error {
	candidates, err := n.Builder.Build(rctx.Model, slot.Benchmark, slot.Cluster)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cluster %d", core.ErrNoCandidates, slot.Cluster)
	}
	slot.Candidates = candidates
	return nil
}
