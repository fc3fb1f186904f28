// Package recommend 组装每个推荐位的 Pipeline，并按批次输出推荐结果。
//
// 一个批次由 NumBets 个常规位和 NumWildcards 个探索位组成，按顺序执行：
//
//	选簇 → 基准点 → 搜索空间 → [过滤] → 选酒
//
// 已选中的酒款加入排除集合，后续槽位不会重复推荐；任一槽位失败则整批失败，不返回部分结果。
package recommend

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/filter"
	"github.com/rushteam/sommelier/pipeline"
	"github.com/rushteam/sommelier/pkg/utils"
	"github.com/rushteam/sommelier/rank"
	"github.com/rushteam/sommelier/recall"
)

// Config 是引擎配置。
type Config struct {
	Tuning core.Tuning

	// Seed 为 0 时使用随机种子
	Seed uint64

	// Filter 是可选的 CEL 候选约束
	Filter string

	// ExcludeSeen 过滤用户历史中出现过的酒款
	ExcludeSeen bool

	// Blacklist 是永不推荐的目录下标
	Blacklist []int `validate:"dive,gte=0"`
}

func DefaultConfig() Config {
	return Config{Tuning: core.DefaultTuning()}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate 校验配置；批次至少要有一个槽位。
func (c Config) Validate() error {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: engine config: %v", core.ErrInvalidInput, err)
	}
	if c.Tuning.BatchSize() == 0 {
		return fmt.Errorf("%w: engine config: batch size is zero", core.ErrInvalidInput)
	}
	return nil
}

// Option 定制 Engine。
type Option func(*Engine)

// WithRand 注入随机源，覆盖 Config.Seed。
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithFilters 追加自定义过滤器。
func WithFilters(filters ...filter.Filter) Option {
	return func(e *Engine) { e.filters = append(e.filters, filters...) }
}

// Engine 是推荐引擎。随机源不是并发安全的，Engine 内部串行化批次。
type Engine struct {
	cfg     Config
	logger  zerolog.Logger
	rng     *rand.Rand
	filters []filter.Filter

	mu      sync.Mutex
	history *pipeline.Pipeline
	demo    *pipeline.Pipeline
}

// NewEngine 创建引擎并构建两条 Pipeline（基于历史 / 演示）。
func NewEngine(cfg Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: logger.With().Str("component", "recommend").Logger(),
	}

	if cfg.Filter != "" {
		f, err := filter.NewExprFilter(cfg.Filter)
		if err != nil {
			return nil, err
		}
		e.filters = append(e.filters, f)
	}
	if cfg.ExcludeSeen {
		e.filters = append(e.filters, &filter.SeenFilter{})
	}
	if len(cfg.Blacklist) > 0 {
		e.filters = append(e.filters, filter.NewBlacklistFilter(cfg.Blacklist))
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		e.rng = rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	}

	t := cfg.Tuning
	search := &recall.SearchSpaceNode{Builder: recall.NewSearchSpaceBuilder(t.AmbiguityThreshold)}
	sel := &rank.SelectNode{Selector: rank.NewWineSelector(t.Eta, t.Lambda)}

	e.history = e.build(
		&recall.ClusterNode{Selector: recall.NewClusterSelector(e.rng)},
		&recall.BenchmarkNode{Sampler: recall.NewBenchmarkSampler(e.rng), SpreadFactor: t.WildcardSpreadFactor},
		search, sel,
	)
	e.demo = e.build(
		&recall.DemoClusterNode{Rand: e.rng},
		&recall.CentroidNode{},
		search, sel,
	)
	return e, nil
}

func (e *Engine) build(cluster, benchmark, search, sel pipeline.Node) *pipeline.Pipeline {
	nodes := []pipeline.Node{cluster, benchmark, search}
	if len(e.filters) > 0 {
		nodes = append(nodes, &filter.FilterNode{Filters: e.filters})
	}
	nodes = append(nodes, sel)
	return &pipeline.Pipeline{Nodes: nodes}
}

func (e *Engine) Config() Config { return e.cfg }

// Pick 是批次中的一个推荐结果。Cost 可能是 ±Inf，不参与 JSON 序列化，文本形式见 Labels["cost"]。
type Pick struct {
	Index   int                    `json:"true_index"`
	Slot    int                    `json:"slot"`
	Mode    core.SlotMode          `json:"mode"`
	Cluster int                    `json:"cluster"`
	Cost    float64                `json:"-"`
	Labels  map[string]utils.Label `json:"labels,omitempty"`
}

// Batch 是一次推荐的完整结果。
type Batch struct {
	ID     string `json:"batch_id"`
	UserID string `json:"user_id,omitempty"`
	Demo   bool   `json:"demo"`
	Picks  []Pick `json:"picks"`
}

// Indices 按槽位顺序返回推荐的目录下标。
func (b *Batch) Indices() []int {
	out := make([]int, len(b.Picks))
	for i, p := range b.Picks {
		out[i] = p.Index
	}
	return out
}

// Recommend 根据用户反馈历史生成一批推荐。
func (e *Engine) Recommend(
	ctx context.Context,
	userID string,
	m core.ClusteringModel,
	history []core.HistoryRecord,
	catalog core.CatalogStore,
) (*Batch, error) {
	// 历史的簇数必须与模型一致，空历史留给选簇阶段报 EmptyHistory
	if len(history) > 0 && len(history[0].ClusterScores) != m.NumClusters() {
		batchesTotal.WithLabelValues("history", "error").Inc()
		return nil, fmt.Errorf("%w: history has %d cluster scores, model has %d clusters",
			core.ErrInconsistentClusterCount, len(history[0].ClusterScores), m.NumClusters())
	}
	rctx := core.NewRecommendContext(userID, m, catalog, history)
	return e.run(ctx, rctx, e.history, "history")
}

// RecommendDemo 是演示模式：常规位从 demoClusters 中均匀选簇，探索位从全部簇中选，
// 基准点直接取簇中心。只支持软聚类模型。
func (e *Engine) RecommendDemo(
	ctx context.Context,
	m core.ClusteringModel,
	catalog core.CatalogStore,
	demoClusters []int,
) (*Batch, error) {
	if _, ok := m.(core.SoftClustering); !ok {
		batchesTotal.WithLabelValues("demo", "error").Inc()
		return nil, fmt.Errorf("%w: demo mode needs a soft clustering model, got %s", core.ErrUnsupportedModel, m.Name())
	}
	if len(demoClusters) == 0 {
		batchesTotal.WithLabelValues("demo", "error").Inc()
		return nil, fmt.Errorf("%w: demo mode needs at least one cluster", core.ErrInvalidInput)
	}
	for _, c := range demoClusters {
		if c < 0 || c >= m.NumClusters() {
			batchesTotal.WithLabelValues("demo", "error").Inc()
			return nil, fmt.Errorf("%w: demo cluster %d out of range [0, %d)", core.ErrInvalidInput, c, m.NumClusters())
		}
	}
	rctx := core.NewRecommendContext("", m, catalog, nil)
	rctx.DemoClusters = append([]int(nil), demoClusters...)
	return e.run(ctx, rctx, e.demo, "demo")
}

func (e *Engine) run(ctx context.Context, rctx *core.RecommendContext, p *pipeline.Pipeline, mode string) (*Batch, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	batch := &Batch{ID: uuid.NewString(), UserID: rctx.UserID, Demo: mode == "demo"}
	rctx.BatchID = batch.ID
	logger := e.logger.With().Str("batch_id", batch.ID).Str("mode", mode).Logger()
	if rctx.UserID != "" {
		logger = logger.With().Str("user_id", rctx.UserID).Logger()
	}

	t := e.cfg.Tuning
	for i := 0; i < t.BatchSize(); i++ {
		if err := ctx.Err(); err != nil {
			batchesTotal.WithLabelValues(mode, "error").Inc()
			return nil, err
		}

		slotMode := core.SlotBet
		if i >= t.NumBets {
			slotMode = core.SlotWildcard
		}
		slot := core.NewSlot(i, slotMode)
		slot.PutLabel("slot", utils.IntLabel(i, "engine"))
		slot.PutLabel("mode", utils.StringLabel(string(slotMode), "engine"))
		if batch.Demo {
			slot.PutLabel("demo", utils.StringLabel("true", "engine"))
		}

		if err := p.Run(ctx, rctx, slot); err != nil {
			code := core.ErrorCode(err)
			if code == "" {
				code = "UNKNOWN"
			}
			slotErrorsTotal.WithLabelValues(code).Inc()
			batchesTotal.WithLabelValues(mode, "error").Inc()
			logger.Error().Err(err).Int("slot", i).Str("code", code).Msg("slot failed, batch aborted")
			return nil, fmt.Errorf("slot %d (%s): %w", i, slotMode, err)
		}

		rctx.Exclude(slot.Pick)
		clusterSelectedTotal.WithLabelValues(strconv.Itoa(slot.Cluster)).Inc()
		searchSpaceSize.Observe(float64(len(slot.Candidates)))

		logger.Debug().
			Int("slot", i).
			Str("slot_mode", string(slotMode)).
			Int("cluster", slot.Cluster).
			Float64("spread", slot.Spread).
			Int("candidates", len(slot.Candidates)).
			Int("pick", slot.Pick).
			Float64("cost", slot.Cost).
			Msg("slot filled")
		if _, ok := slot.Labels["malformed_score"]; ok {
			logger.Warn().Int("slot", i).Int("pick", slot.Pick).
				Msg("wine with unparseable score won the slot")
		}

		batch.Picks = append(batch.Picks, Pick{
			Index:   slot.Pick,
			Slot:    i,
			Mode:    slotMode,
			Cluster: slot.Cluster,
			Cost:    slot.Cost,
			Labels:  slot.Labels,
		})
	}

	batchesTotal.WithLabelValues(mode, "ok").Inc()
	logger.Info().Ints("picks", batch.Indices()).Msg("batch recommended")
	return batch, nil
}
