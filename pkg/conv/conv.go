// Package conv 提供把 JSON/YAML 解析出的 any 值转换为具体类型的小工具。
package conv

// ToFloat64 将 any 转为 float64，支持各整数/浮点类型。
func ToFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// ToInt 将 any 转为 int；浮点数必须是整数值。
func ToInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case int32:
		return int(val), true
	case uint64:
		return int(val), true
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	default:
		return 0, false
	}
}

// ToString 仅支持 string 类型，否则返回 ("", false)。
func ToString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// ConvertSlice 将 []any 逐个转换为 []T，任一元素转换失败返回 (nil, false)。
func ConvertSlice[T any](v any, convert func(any) (T, bool)) ([]T, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]T, 0, len(raw))
	for _, e := range raw {
		t, ok := convert(e)
		if !ok {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// FirstOf 返回 m 中第一个存在的 key 对应的值。
func FirstOf(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}
