package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/sommelier/core"
)

// BreakerConfig 是 Redis 读路径的熔断配置。
type BreakerConfig struct {
	// MaxRequests 半开状态允许通过的请求数
	MaxRequests uint32 `koanf:"max_requests" json:"max_requests"`
	// Interval 闭合状态下计数清零的周期，0 表示不清零
	Interval time.Duration `koanf:"interval" json:"interval"`
	// Timeout 打开状态持续多久后进入半开
	Timeout time.Duration `koanf:"timeout" json:"timeout"`
	// FailureThreshold 连续失败多少次后打开
	FailureThreshold uint32 `koanf:"failure_threshold" json:"failure_threshold" validate:"gte=1"`
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: 30 * time.Second, FailureThreshold: 5}
}

// RedisConfig 是 RedisHistory 的连接配置。
type RedisConfig struct {
	Addr      string        `koanf:"addr" json:"addr"`
	Password  string        `koanf:"password" json:"-"`
	DB        int           `koanf:"db" json:"db" validate:"gte=0"`
	KeyPrefix string        `koanf:"key_prefix" json:"key_prefix"`
	Breaker   BreakerConfig `koanf:"breaker" json:"breaker"`
}

// RedisHistory 用 Redis List 保存历史：key 为 {KeyPrefix}:{UserID}，每个元素一条 JSON 记录。
// 读路径经过熔断器，Redis 持续不可用时快速失败。
type RedisHistory struct {
	client    redis.UniversalClient
	keyPrefix string
	breaker   *gobreaker.CircuitBreaker[[]string]
}

// NewRedisHistory 连接 Redis 并 Ping。
func NewRedisHistory(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisHistory, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis history: ping %s: %w", cfg.Addr, err)
	}
	return NewRedisHistoryWithClient(client, cfg, logger), nil
}

// NewRedisHistoryWithClient 使用已有的客户端（单机、集群或哨兵）。
func NewRedisHistoryWithClient(client redis.UniversalClient, cfg RedisConfig, logger zerolog.Logger) *RedisHistory {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "sommelier:history"
	}
	bc := cfg.Breaker
	if bc.FailureThreshold == 0 {
		bc = DefaultBreakerConfig()
	}
	settings := gobreaker.Settings{
		Name:        "redis-history",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		IsSuccessful: breakerSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &RedisHistory{
		client:    client,
		keyPrefix: prefix,
		breaker:   gobreaker.NewCircuitBreaker[[]string](settings),
	}
}

// breakerSuccessful 判断一次调用是否计为成功：调用方取消或超时不算 Redis 故障。
func breakerSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *RedisHistory) Name() string { return "redis" }

func (r *RedisHistory) key(userID string) string {
	return r.keyPrefix + ":" + userID
}

func (r *RedisHistory) History(ctx context.Context, userID string) ([]core.HistoryRecord, error) {
	vals, err := r.breaker.Execute(func() ([]string, error) {
		return r.client.LRange(ctx, r.key(userID), 0, -1).Result()
	})
	if err != nil {
		return nil, fmt.Errorf("redis history: %w", err)
	}
	out := make([]core.HistoryRecord, 0, len(vals))
	for i, v := range vals {
		rec, err := decodeRecord([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("redis history: element %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *RedisHistory) Append(ctx context.Context, userID string, rec core.HistoryRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("redis history: encode: %w", err)
	}
	return r.client.RPush(ctx, r.key(userID), data).Err()
}

// Clear 删除用户的全部历史。
func (r *RedisHistory) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}

func (r *RedisHistory) Close() error {
	return r.client.Close()
}

var _ core.HistoryStore = (*RedisHistory)(nil)
