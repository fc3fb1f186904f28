package store

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/sommelier/core"
	"github.com/rushteam/sommelier/pkg/conv"
)

// LoadCatalogJSON 解析 JSON 数组格式的目录，数组下标即 true_index。每个元素：
//
//	{"price": "$15/750ml", "score": "91", "features": {"dim": 5000, "indices": [...], "values": [...]}}
//
// 价格键也可以写作 "price:"；价格、评分也可以直接是数字；特征也可以是稠密数组 "vector"。
// 价格/评分无法解析时替换为哨兵值并记录日志，不中断加载。
func LoadCatalogJSON(r io.Reader, logger zerolog.Logger) ([]core.Wine, error) {
	var raws []map[string]any
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %v", core.ErrInvalidInput, err)
	}

	wines := make([]core.Wine, len(raws))
	malformed := 0
	dim := -1
	for i, raw := range raws {
		w, bad, err := parseWine(i, raw)
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		for _, e := range bad {
			logger.Debug().Int("true_index", i).Err(e).Msg("malformed catalog field")
		}
		if len(bad) > 0 {
			malformed++
		}
		if dim == -1 {
			dim = w.Features.Dim
		} else if w.Features.Dim != dim {
			return nil, fmt.Errorf("%w: catalog entry %d has dimension %d, want %d",
				core.ErrInvalidInput, i, w.Features.Dim, dim)
		}
		wines[i] = w
	}
	if malformed > 0 {
		logger.Warn().Int("wines", malformed).Int("total", len(wines)).
			Msg("catalog has malformed price or score fields")
	}
	return wines, nil
}

// LoadCatalogFile 从文件加载目录。
func LoadCatalogFile(path string, logger zerolog.Logger) (*MemoryCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer f.Close()
	wines, err := LoadCatalogJSON(f, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return NewMemoryCatalog(wines), nil
}

func parseWine(i int, raw map[string]any) (core.Wine, []error, error) {
	w := core.Wine{Index: i}
	var bad []error

	price, _ := conv.FirstOf(raw, "price", "price:")
	var ok bool
	w.Price, ok = parseField(price, core.ParsePrice, math.Inf(1))
	if !ok {
		bad = append(bad, fmt.Errorf("%w: price %v", core.ErrMalformedCatalogField, price))
	}
	w.Score, ok = parseField(raw["score"], core.ParseScore, math.Inf(-1))
	if !ok {
		bad = append(bad, fmt.Errorf("%w: score %v", core.ErrMalformedCatalogField, raw["score"]))
	}

	features, err := parseFeatures(raw)
	if err != nil {
		return w, bad, err
	}
	w.Features = features
	return w, bad, nil
}

// parseField 字符串走 parse，数字直接使用（必须有限且非负），其它返回 sentinel。
func parseField(v any, parse func(string) (float64, error), sentinel float64) (float64, bool) {
	if s, ok := conv.ToString(v); ok {
		x, err := parse(s)
		return x, err == nil
	}
	if x, ok := conv.ToFloat64(v); ok && x >= 0 && !math.IsInf(x, 0) && !math.IsNaN(x) {
		return x, true
	}
	return sentinel, false
}

var errFeatures = errors.New("features must be {dim, indices, values} or a dense vector")

func parseFeatures(raw map[string]any) (core.SparseVector, error) {
	if dense, ok := raw["vector"]; ok {
		xs, ok := conv.ConvertSlice(dense, conv.ToFloat64)
		if !ok {
			return core.SparseVector{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, errFeatures)
		}
		return core.DenseToSparse(xs), nil
	}

	m, ok := raw["features"].(map[string]any)
	if !ok {
		return core.SparseVector{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, errFeatures)
	}
	dim, ok := conv.ToInt(m["dim"])
	if !ok || dim <= 0 {
		return core.SparseVector{}, fmt.Errorf("%w: features.dim must be a positive integer", core.ErrInvalidInput)
	}
	indices, ok1 := conv.ConvertSlice(m["indices"], conv.ToInt)
	values, ok2 := conv.ConvertSlice(m["values"], conv.ToFloat64)
	if !ok1 || !ok2 {
		return core.SparseVector{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, errFeatures)
	}
	v, err := core.NewSparseVector(dim, indices, values)
	if err != nil {
		return core.SparseVector{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	return v, nil
}
