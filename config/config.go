// Package config 加载 sommelier 的运行配置，按 默认值 → YAML 文件 → 环境变量 的顺序覆盖。
//
// 环境变量以 SOMMELIER_ 为前缀，路径中的 '.' 写作 '_'：
//
//	SOMMELIER_ENGINE_LAMBDA=50            → engine.lambda
//	SOMMELIER_HISTORY_BACKEND=redis       → history.backend
//	SOMMELIER_HISTORY_REDIS_ADDR=...      → history.redis.addr
//	SOMMELIER_ENGINE_BLACKLIST=3,17,42    → engine.blacklist
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/logging"
	"github.com/rushteam/sommelier/store"
)

const (
	// EnvPrefix 是环境变量前缀
	EnvPrefix = "SOMMELIER_"

	// PathEnvVar 指定配置文件路径
	PathEnvVar = "SOMMELIER_CONFIG"
)

// DefaultPaths 是未显式指定时依次查找的配置文件。
var DefaultPaths = []string{"sommelier.yaml", "sommelier.yml", "/etc/sommelier/sommelier.yaml"}

type Config struct {
	Engine  EngineConfig   `koanf:"engine" json:"engine"`
	Model   ModelConfig    `koanf:"model" json:"model"`
	Catalog CatalogConfig  `koanf:"catalog" json:"catalog"`
	History HistoryConfig  `koanf:"history" json:"history"`
	Log     logging.Config `koanf:"log" json:"log"`
}

// EngineConfig 是推荐引擎参数。
type EngineConfig struct {
	Eta                  float64 `koanf:"eta" json:"eta" validate:"gte=0"`
	Lambda               float64 `koanf:"lambda" json:"lambda" validate:"gte=0"`
	AmbiguityThreshold   float64 `koanf:"ambiguity_threshold" json:"ambiguity_threshold" validate:"gte=0,lte=1"`
	NumBets              int     `koanf:"num_bets" json:"num_bets" validate:"gte=0"`
	NumWildcards         int     `koanf:"num_wildcards" json:"num_wildcards" validate:"gte=0"`
	WildcardSpreadFactor float64 `koanf:"wildcard_spread_factor" json:"wildcard_spread_factor" validate:"gte=0"`

	// Seed 为 0 时使用随机种子
	Seed uint64 `koanf:"seed" json:"seed"`

	// Filter 是可选的 CEL 候选约束，如 "wine.price <= 40.0"
	Filter string `koanf:"filter" json:"filter"`

	// ExcludeSeen 过滤用户历史中出现过的酒款
	ExcludeSeen bool `koanf:"exclude_seen" json:"exclude_seen"`

	// Blacklist 是永不推荐的目录下标
	Blacklist []int `koanf:"blacklist" json:"blacklist" validate:"dive,gte=0"`
}

// Tuning 返回核心算法参数。
func (e EngineConfig) Tuning() core.Tuning {
	return core.Tuning{
		Eta:                  e.Eta,
		Lambda:               e.Lambda,
		AmbiguityThreshold:   e.AmbiguityThreshold,
		NumBets:              e.NumBets,
		NumWildcards:         e.NumWildcards,
		WildcardSpreadFactor: e.WildcardSpreadFactor,
	}
}

// ModelConfig 指向聚类模型产物（YAML 或 JSON）。
type ModelConfig struct {
	Path string `koanf:"path" json:"path" validate:"required"`
}

// CatalogConfig 是目录来源：json 文件或 sqlite 数据库。
type CatalogConfig struct {
	Source string `koanf:"source" json:"source" validate:"oneof=json sqlite"`
	Path   string `koanf:"path" json:"path" validate:"required"`
}

// HistoryConfig 是反馈历史后端。
type HistoryConfig struct {
	Backend string            `koanf:"backend" json:"backend" validate:"oneof=memory file redis"`
	Dir     string            `koanf:"dir" json:"dir" validate:"required_if=Backend file"`
	Redis   store.RedisConfig `koanf:"redis" json:"redis"`
}

func defaultConfig() *Config {
	t := core.DefaultTuning()
	return &Config{
		Engine: EngineConfig{
			Eta:                  t.Eta,
			Lambda:               t.Lambda,
			AmbiguityThreshold:   t.AmbiguityThreshold,
			NumBets:              t.NumBets,
			NumWildcards:         t.NumWildcards,
			WildcardSpreadFactor: t.WildcardSpreadFactor,
		},
		Catalog: CatalogConfig{Source: "json"},
		History: HistoryConfig{
			Backend: "file",
			Dir:     "history",
			Redis: store.RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "sommelier:history",
				Breaker:   store.DefaultBreakerConfig(),
			},
		},
		Log: logging.Config{Level: "info", Format: "json"},
	}
}

// Default 返回默认配置（未校验：model.path 与 catalog.path 没有默认值）。
func Default() *Config {
	return defaultConfig()
}

// Load 加载配置。path 为空时依次查找 SOMMELIER_CONFIG 与 DefaultPaths，都不存在则只用默认值与环境变量。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform(k.Keys())), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}
	if err := splitSlice(k, "engine.blacklist"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransform 把 SOMMELIER_HISTORY_REDIS_KEY_PREFIX 映射为已知路径 history.redis.key_prefix；
// 未知的变量按第一个 '_' 切分为 section.key。
func envTransform(known []string) func(string) string {
	paths := make(map[string]string, len(known))
	for _, k := range known {
		paths[strings.ReplaceAll(k, ".", "_")] = k
	}
	return func(key string) string {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "config" {
			return ""
		}
		if p, ok := paths[key]; ok {
			return p
		}
		return strings.Replace(key, "_", ".", 1)
	}
}

// splitSlice 把环境变量传入的逗号分隔字符串转换为切片。
func splitSlice(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("config: set %s: %w", path, err)
	}
	return nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator 返回单例校验器。
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 按结构体 validate 标签校验配置。
func (c *Config) Validate() error {
	if err := Validator().Struct(c); err != nil {
		return fmt.Errorf("%w: config: %v", core.ErrInvalidInput, err)
	}
	if c.History.Backend == "redis" && c.History.Redis.Addr == "" {
		return fmt.Errorf("%w: config: history.redis.addr is required for the redis backend", core.ErrInvalidInput)
	}
	return nil
}
