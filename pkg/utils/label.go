package utils

import "strconv"

// Label 是推荐结果的解释信息：可追踪、可透传。
// Value 与 Source 的语义由业务自定义；这里只提供标准化的合并规则。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rank / engine ...
}

// StringLabel 构造字符串 Label。
func StringLabel(value, source string) Label {
	return Label{Value: value, Source: source}
}

// IntLabel 构造整数 Label（簇下标、目录下标、槽位序号等）。
func IntLabel(value int, source string) Label {
	return Label{Value: strconv.Itoa(value), Source: source}
}

// FloatLabel 构造浮点 Label，保留 4 位有效数字。
func FloatLabel(value float64, source string) Label {
	return Label{Value: strconv.FormatFloat(value, 'g', 4, 64), Source: source}
}

// MergeLabel 用于合并同名 Label，遵循“保留历史、可追踪”的默认策略。
// - Value: 以 '|' 累积
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
