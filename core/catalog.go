package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wine 是目录中的一款酒，加载后只读。
// Price 无法解析时为 +Inf，Score 无法解析时为 -Inf（见 ParsePrice / ParseScore）。
type Wine struct {
	Index    int          `json:"true_index"`
	Price    float64      `json:"price"`
	Score    float64      `json:"score"`
	Features SparseVector `json:"features"`
}

// MalformedScore 判断评分是否为解析失败的哨兵值。
func (w *Wine) MalformedScore() bool { return math.IsInf(w.Score, -1) }

// MalformedPrice 判断价格是否为解析失败的哨兵值。
func (w *Wine) MalformedPrice() bool { return math.IsInf(w.Price, 1) }

// CatalogStore 是酒款目录的只读接口。
//
// 实现：
//   - store.MemoryCatalog
//   - store.SQLiteCatalog（启动时一次性加载）
type CatalogStore interface {
	// Item 按目录下标返回酒款，越界返回 ErrNotFound
	Item(index int) (*Wine, error)

	// Size 返回目录大小
	Size() int
}

// ParsePrice 解析目录中的价格字符串，例如 "$15" 或 "$15/750ml"。
// 去掉首字符（货币符号），截断到最后一个 '/'，只接受纯数字。
// 解析失败返回 +Inf 与 MALFORMED_CATALOG_FIELD 错误，调用方只需记录，不应中断加载。
func ParsePrice(raw string) (float64, error) {
	s := raw
	if s != "" {
		s = s[1:]
	}
	if slash := strings.LastIndex(s, "/"); slash != -1 {
		s = s[:slash]
	}
	if !isDigits(s) {
		return math.Inf(1), fmt.Errorf("%w: price %q", ErrMalformedCatalogField, raw)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.Inf(1), fmt.Errorf("%w: price %q", ErrMalformedCatalogField, raw)
	}
	return v, nil
}

// ParseScore 解析评分字符串，只接受纯数字，否则返回 -Inf。
func ParseScore(raw string) (float64, error) {
	if !isDigits(raw) {
		return math.Inf(-1), fmt.Errorf("%w: score %q", ErrMalformedCatalogField, raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.Inf(-1), fmt.Errorf("%w: score %q", ErrMalformedCatalogField, raw)
	}
	return v, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
