// Package service 把模型、目录、历史存储与推荐引擎装配成一个可直接调用的服务。
//
// 使用示例：
//
//	cfg, _ := config.Load("")
//	svc, err := service.New(ctx, cfg, logging.Logger())
//	defer svc.Close()
//	batch, err := svc.Recommend(ctx, "alice", nil)
//	err = svc.Feedback(ctx, "alice", batch.Picks[0].Index, core.FeedbackAccept)
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/sommelier/config"
	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/model"
	"github.com/rushteam/sommelier/recommend"
	"github.com/rushteam/sommelier/store"
)

// Service 持有一次加载的模型与目录，以及可读写的历史存储。
type Service struct {
	logger  zerolog.Logger
	engine  *recommend.Engine
	model   core.ClusteringModel
	catalog core.CatalogStore
	history core.HistoryStore

	closeCatalog func() error
}

// EngineConfig 把配置文件中的 engine 段转换为引擎配置。
func EngineConfig(cfg *config.Config) recommend.Config {
	return recommend.Config{
		Tuning:      cfg.Engine.Tuning(),
		Seed:        cfg.Engine.Seed,
		Filter:      cfg.Engine.Filter,
		ExcludeSeen: cfg.Engine.ExcludeSeen,
		Blacklist:   cfg.Engine.Blacklist,
	}
}

// New 校验配置，并发加载模型、目录与历史存储，然后创建引擎。
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...recommend.Option) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: service: config is required", core.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logger.With().Str("component", "service").Logger()

	engine, err := recommend.NewEngine(EngineConfig(cfg), logger, opts...)
	if err != nil {
		return nil, err
	}

	var (
		m            core.ClusteringModel
		catalog      core.CatalogStore
		closeCatalog func() error
		history      core.HistoryStore
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		m, err = model.Load(cfg.Model.Path)
		return err
	})
	eg.Go(func() error {
		var err error
		catalog, closeCatalog, err = OpenCatalog(egCtx, cfg.Catalog, logger)
		return err
	})
	eg.Go(func() error {
		var err error
		history, err = OpenHistory(egCtx, cfg.History, logger)
		return err
	})
	if err := eg.Wait(); err != nil {
		var closers []func() error
		if closeCatalog != nil {
			closers = append(closers, closeCatalog)
		}
		if history != nil {
			closers = append(closers, history.Close)
		}
		return nil, closeOnError(fmt.Errorf("service: bootstrap: %w", err), closers...)
	}

	s := &Service{
		logger:       logger,
		engine:       engine,
		model:        m,
		catalog:      catalog,
		history:      history,
		closeCatalog: closeCatalog,
	}
	if m.Len() != catalog.Size() {
		err := fmt.Errorf("%w: model covers %d wines, catalog has %d",
			core.ErrInvalidInput, m.Len(), catalog.Size())
		return nil, closeOnError(err, s.Close)
	}

	logger.Info().
		Str("model", m.Name()).
		Int("clusters", m.NumClusters()).
		Int("wines", catalog.Size()).
		Str("history", history.Name()).
		Msg("service ready")
	return s, nil
}

// closeOnError 释放已打开的资源，并把关闭失败合并进原错误。
func closeOnError(err error, closers ...func() error) error {
	errs := []error{err}
	for _, c := range closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// NewWithStores 用已加载的组件创建服务（测试或嵌入式使用）。
func NewWithStores(
	engine *recommend.Engine,
	m core.ClusteringModel,
	catalog core.CatalogStore,
	history core.HistoryStore,
	logger zerolog.Logger,
) *Service {
	return &Service{
		logger:  logger.With().Str("component", "service").Logger(),
		engine:  engine,
		model:   m,
		catalog: catalog,
		history: history,
	}
}

// OpenCatalog 按配置打开目录，返回的 close 函数释放底层资源。
func OpenCatalog(ctx context.Context, cfg config.CatalogConfig, logger zerolog.Logger) (core.CatalogStore, func() error, error) {
	switch cfg.Source {
	case "json":
		c, err := store.LoadCatalogFile(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { return nil }, nil
	case "sqlite":
		c, err := store.NewSQLiteCatalog(ctx, cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown catalog source %q", core.ErrInvalidInput, cfg.Source)
	}
}

// OpenHistory 按配置打开历史存储。
func OpenHistory(ctx context.Context, cfg config.HistoryConfig, logger zerolog.Logger) (core.HistoryStore, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryHistory(), nil
	case "file":
		return store.NewFileHistory(cfg.Dir)
	case "redis":
		return store.NewRedisHistory(ctx, cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("%w: unknown history backend %q", core.ErrInvalidInput, cfg.Backend)
	}
}

func (s *Service) Model() core.ClusteringModel { return s.model }

func (s *Service) Catalog() core.CatalogStore { return s.catalog }

func (s *Service) History() core.HistoryStore { return s.history }

// Recommend 生成一批推荐：demoClusters 非空时走演示模式（不读历史），否则基于用户历史。
func (s *Service) Recommend(ctx context.Context, userID string, demoClusters []int) (*recommend.Batch, error) {
	if len(demoClusters) > 0 {
		return s.engine.RecommendDemo(ctx, s.model, s.catalog, demoClusters)
	}
	history, err := s.history.History(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history for %q: %w", userID, err)
	}
	return s.engine.Recommend(ctx, userID, s.model, history, s.catalog)
}

// Feedback 记录用户对某款酒的决定：按模型类型构造历史记录并追加到存储。
func (s *Service) Feedback(ctx context.Context, userID string, index int, fb core.Feedback) (core.HistoryRecord, error) {
	if fb != core.FeedbackAccept && fb != core.FeedbackReject {
		return core.HistoryRecord{}, fmt.Errorf("%w: feedback must be +1 or -1, got %d", core.ErrInvalidInput, fb)
	}
	w, err := s.catalog.Item(index)
	if err != nil {
		return core.HistoryRecord{}, err
	}

	var rec core.HistoryRecord
	switch m := s.model.(type) {
	case core.SoftClustering:
		membership, err := m.Membership(index)
		if err != nil {
			return core.HistoryRecord{}, err
		}
		rec = core.NewSoftRecord(w, membership, fb)
	case core.HardClustering:
		cluster, err := m.ClusterOf(index)
		if err != nil {
			return core.HistoryRecord{}, err
		}
		rec = core.NewHardRecord(w, cluster, m.NumClusters(), fb)
	default:
		return core.HistoryRecord{}, fmt.Errorf("%w: %s", core.ErrUnsupportedModel, s.model.Name())
	}

	if err := s.history.Append(ctx, userID, rec); err != nil {
		return core.HistoryRecord{}, fmt.Errorf("append history for %q: %w", userID, err)
	}
	s.logger.Info().
		Str("user_id", userID).
		Int("index", index).
		Int("feedback", int(fb)).
		Int("cluster", rec.DominantCluster()).
		Msg("feedback recorded")
	return rec, nil
}

// Close 释放历史存储与目录。
func (s *Service) Close() error {
	var errs []error
	if s.history != nil {
		errs = append(errs, s.history.Close())
	}
	if s.closeCatalog != nil {
		errs = append(errs, s.closeCatalog())
	}
	return errors.Join(errs...)
}
