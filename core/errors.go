package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持 errors.Is：按 Code 比较，包装后（fmt.Errorf("%w")）仍可识别
//
// 使用场景：
//   - 选簇错误：EMPTY_HISTORY, INCONSISTENT_CLUSTER_COUNT, DEGENERATE_DISTRIBUTION
//   - 采样错误：EMPTY_CLUSTER_HISTORY
//   - 候选/选酒错误：NO_CANDIDATES, SEARCH_SPACE_EXHAUSTED
//   - 模型错误：UNSUPPORTED_MODEL
//   - 目录解析：MALFORMED_CATALOG_FIELD（仅记录，不中断）
type DomainError struct {
	Code    string // 错误代码（如 "NO_CANDIDATES"）
	Message string // 错误消息
	Module  string // 模块名称（如 "recall", "rank", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 按错误代码匹配，Module 与 Message 不参与比较。
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// IsDomainError 检查错误链中是否包含 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeInvalidInput = "INVALID_INPUT" // 输入无效

	// 推荐核心错误代码
	ErrorCodeEmptyHistory             = "EMPTY_HISTORY"
	ErrorCodeInconsistentClusterCount = "INCONSISTENT_CLUSTER_COUNT"
	ErrorCodeDegenerateDistribution   = "DEGENERATE_DISTRIBUTION"
	ErrorCodeEmptyClusterHistory      = "EMPTY_CLUSTER_HISTORY"
	ErrorCodeNoCandidates             = "NO_CANDIDATES"
	ErrorCodeSearchSpaceExhausted     = "SEARCH_SPACE_EXHAUSTED"
	ErrorCodeUnsupportedModel         = "UNSUPPORTED_MODEL"
	ErrorCodeMalformedCatalogField    = "MALFORMED_CATALOG_FIELD"
)

// 模块名称常量
const (
	ModuleStore   = "store"   // 存储模块
	ModuleCatalog = "catalog" // 酒款目录
	ModuleModel   = "model"   // 聚类模型
	ModuleRecall  = "recall"  // 选簇 / 基准点 / 搜索空间
	ModuleRank    = "rank"    // 代价函数选酒
	ModuleEngine  = "engine"  // 批量推荐编排
)

// 预定义错误，用于 errors.Is 比较；返回时通常会包装更具体的上下文。
var (
	ErrEmptyHistory             = NewDomainError(ModuleRecall, ErrorCodeEmptyHistory, "recall: history is empty")
	ErrInconsistentClusterCount = NewDomainError(ModuleRecall, ErrorCodeInconsistentClusterCount, "recall: cluster score lengths differ across history")
	ErrDegenerateDistribution   = NewDomainError(ModuleRecall, ErrorCodeDegenerateDistribution, "recall: cluster weights do not form a distribution")
	ErrEmptyClusterHistory      = NewDomainError(ModuleRecall, ErrorCodeEmptyClusterHistory, "recall: no history record belongs to cluster")
	ErrNoCandidates             = NewDomainError(ModuleRecall, ErrorCodeNoCandidates, "recall: search space is empty")
	ErrSearchSpaceExhausted     = NewDomainError(ModuleRank, ErrorCodeSearchSpaceExhausted, "rank: every candidate is already recommended")
	ErrUnsupportedModel         = NewDomainError(ModuleEngine, ErrorCodeUnsupportedModel, "engine: clustering model not supported")
	ErrMalformedCatalogField    = NewDomainError(ModuleCatalog, ErrorCodeMalformedCatalogField, "catalog: malformed field")
	ErrNotFound                 = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: not found")
	ErrInvalidInput             = NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "invalid input")
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsEmptyHistory 检查错误是否为 EMPTY_HISTORY
func IsEmptyHistory(err error) bool { return hasCode(err, ErrorCodeEmptyHistory) }

// IsInconsistentClusterCount 检查错误是否为 INCONSISTENT_CLUSTER_COUNT
func IsInconsistentClusterCount(err error) bool {
	return hasCode(err, ErrorCodeInconsistentClusterCount)
}

// IsDegenerateDistribution 检查错误是否为 DEGENERATE_DISTRIBUTION
func IsDegenerateDistribution(err error) bool {
	return hasCode(err, ErrorCodeDegenerateDistribution)
}

// IsEmptyClusterHistory 检查错误是否为 EMPTY_CLUSTER_HISTORY
func IsEmptyClusterHistory(err error) bool { return hasCode(err, ErrorCodeEmptyClusterHistory) }

// IsNoCandidates 检查错误是否为 NO_CANDIDATES
func IsNoCandidates(err error) bool { return hasCode(err, ErrorCodeNoCandidates) }

// IsSearchSpaceExhausted 检查错误是否为 SEARCH_SPACE_EXHAUSTED
func IsSearchSpaceExhausted(err error) bool { return hasCode(err, ErrorCodeSearchSpaceExhausted) }

// IsUnsupportedModel 检查错误是否为 UNSUPPORTED_MODEL
func IsUnsupportedModel(err error) bool { return hasCode(err, ErrorCodeUnsupportedModel) }

// IsMalformedCatalogField 检查错误是否为 MALFORMED_CATALOG_FIELD
func IsMalformedCatalogField(err error) bool { return hasCode(err, ErrorCodeMalformedCatalogField) }

// ErrorCode 返回错误链中 DomainError 的代码，不存在时返回空字符串（用于打点）。
func ErrorCode(err error) string {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code
	}
	return ""
}
