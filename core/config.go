package core

// Tuning 是推荐核心的调参项，构造引擎时显式传入，便于按场景测试。
type Tuning struct {
	// Eta 是性价比项（price/score）的权重
	Eta float64 `koanf:"eta" json:"eta" validate:"gte=0"`

	// Lambda 是相似度项的权重，默认远大于 Eta，相似度主导
	Lambda float64 `koanf:"lambda" json:"lambda" validate:"gte=0"`

	// AmbiguityThreshold 软聚类中第一、二名概率差小于该值时同时纳入第二个簇
	AmbiguityThreshold float64 `koanf:"ambiguity_threshold" json:"ambiguity_threshold" validate:"gte=0,lte=1"`

	// NumBets 是每批的常规推荐数
	NumBets int `koanf:"num_bets" json:"num_bets" validate:"gte=0"`

	// NumWildcards 是每批的探索推荐数
	NumWildcards int `koanf:"num_wildcards" json:"num_wildcards" validate:"gte=0"`

	// WildcardSpreadFactor 是探索位相对常规位的离散度倍数
	WildcardSpreadFactor float64 `koanf:"wildcard_spread_factor" json:"wildcard_spread_factor" validate:"gte=0"`
}

// DefaultTuning 返回默认调参：3 个常规位 + 1 个探索位。
func DefaultTuning() Tuning {
	return Tuning{
		Eta:                  1e-7,
		Lambda:               100,
		AmbiguityThreshold:   0.2,
		NumBets:              3,
		NumWildcards:         1,
		WildcardSpreadFactor: 20,
	}
}

// BatchSize 返回一批推荐的总数。
func (t Tuning) BatchSize() int { return t.NumBets + t.NumWildcards }
