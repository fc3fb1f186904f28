package core

import "github.com/rushteam/sommelier/pkg/utils"

// RecommendContext 承载一次批量推荐的输入，贯穿每个槽位的 Pipeline 透传。
// Model / Catalog / History 由调用方持有且只读；Excluded 是本批已选中的目录下标，
// 由引擎在槽位之间累积。
type RecommendContext struct {
	UserID  string
	BatchID string

	Model   ClusteringModel
	Catalog CatalogStore
	History []HistoryRecord

	// DemoClusters 非空时走演示模式：常规位从中均匀抽簇
	DemoClusters []int

	// Excluded 是本批已推荐的目录下标
	Excluded map[int]struct{}

	// Labels 是批级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label
}

// NewRecommendContext 创建上下文并初始化排除集合。
func NewRecommendContext(userID string, m ClusteringModel, catalog CatalogStore, history []HistoryRecord) *RecommendContext {
	return &RecommendContext{
		UserID:   userID,
		Model:    m,
		Catalog:  catalog,
		History:  history,
		Excluded: make(map[int]struct{}),
		Labels:   make(map[string]utils.Label),
	}
}

// Exclude 把目录下标加入本批排除集合。
func (rctx *RecommendContext) Exclude(index int) {
	if rctx.Excluded == nil {
		rctx.Excluded = make(map[int]struct{})
	}
	rctx.Excluded[index] = struct{}{}
}

// IsExcluded 判断目录下标是否已在本批中。
func (rctx *RecommendContext) IsExcluded(index int) bool {
	_, ok := rctx.Excluded[index]
	return ok
}

// PutLabel 写入批级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取批级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
