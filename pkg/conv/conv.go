// Package conv 提供类型转换、map/slice 转换等泛型工具，
// 用于把 YAML/JSON 配置、DuckDB 扫描结果、Feast 特征值统一成列数据。
package conv

import (
	"fmt"
	"math"
	"strconv"
)

// ToFloat64 将 any 转为 float64。
// 支持各种整数/浮点类型；bool 视为 1.0/0.0；nil 返回 (NaN, false)。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return math.NaN(), false
	}
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
	case int16:
		return float64(val), true
	case int8:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint64:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint8:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToInt64 将 any 转为 int64。
// 支持各种整数类型；浮点仅在为整数值时转换；bool 视为 1/0。
func ToInt64(v any) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int16:
		return int64(val), true
	case int8:
		return int64(val), true
	case uint:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint8:
		return int64(val), true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case float32:
		if float64(val) != math.Trunc(float64(val)) {
			return 0, false
		}
		return int64(val), true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// IsInteger 判断 v 是否为整数类型（不含浮点与 bool）
func IsInteger(v any) bool {
	switch v.(type) {
	case int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		return true
	default:
		return false
	}
}

// ToString 将 any 转为 string。
// string 直接返回；[]byte 转为 string；数字按最短表示格式化。
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	}
	if i, ok := ToInt64(v); ok && IsInteger(v) {
		return strconv.FormatInt(i, 10), true
	}
	return "", false
}

// convertSlice 将 []T 按 convert 转为 []U，convert 返回 false 的元素被跳过。
func convertSlice[T, U any](s []T, convert func(T) (U, bool)) []U {
	if s == nil {
		return nil
	}
	out := make([]U, 0, len(s))
	for _, v := range s {
		if u, ok := convert(v); ok {
			out = append(out, u)
		}
	}
	return out
}

// convertSliceStrict 将 []T 按 convert 转为 []U，任一元素转换失败即返回错误。
func convertSliceStrict[T, U any](s []T, convert func(T) (U, bool)) ([]U, error) {
	out := make([]U, len(s))
	for i, v := range s {
		u, ok := convert(v)
		if !ok {
			return nil, fmt.Errorf("element %d: cannot convert %T", i, v)
		}
		out[i] = u
	}
	return out, nil
}

// ToInt64Slice 将 []any（如 DuckDB LIST 扫描结果）或已知整数切片转为 []int64。
// 元素转换失败时返回 false。
func ToInt64Slice(v any) ([]int64, bool) {
	switch val := v.(type) {
	case nil:
		return []int64{}, true
	case []int64:
		return append([]int64{}, val...), true
	case []int32:
		out := make([]int64, len(val))
		for i, x := range val {
			out[i] = int64(x)
		}
		return out, true
	case []any:
		out, err := convertSliceStrict(val, ToInt64)
		if err != nil {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// ToStringSlice 将 []any 或 []string 转为 []string。
func ToStringSlice(v any) ([]string, bool) {
	switch val := v.(type) {
	case nil:
		return []string{}, true
	case []string:
		return append([]string{}, val...), true
	case []any:
		out, err := convertSliceStrict(val, ToString)
		if err != nil {
			return nil, false
		}
		return out, true
	default:
		return nil, false
	}
}

// SliceAnyToString 将 []any（即 []interface{}）转为 []string。
// 元素为 string 直接保留，为数字时格式化；无法转换的元素被跳过。
func SliceAnyToString(v any) []string {
	if v == nil {
		return nil
	}
	if s, ok := v.([]string); ok {
		return s
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	return convertSlice(raw, ToString)
}

// ConfigGet 从 map[string]any（如 YAML/JSON 解析结果）按 key 取 T，取不到或类型不符时返回 defaultVal。
func ConfigGet[T any](m map[string]any, key string, defaultVal T) T {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	t, ok := v.(T)
	if !ok {
		return defaultVal
	}
	return t
}

// ConfigGetInt64 从 config 取 int64。YAML/JSON 常得到 int 或 float64，此处兼容并统一为 int64。
func ConfigGetInt64(m map[string]any, key string, defaultVal int64) int64 {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	if f, ok := v.(float64); ok {
		return int64(f)
	}
	if i, ok := ToInt64(v); ok {
		return i
	}
	return defaultVal
}

// ConfigGetFloat64 从 config 取 float64，兼容整数写法。
func ConfigGetFloat64(m map[string]any, key string, defaultVal float64) float64 {
	if m == nil {
		return defaultVal
	}
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	if f, ok := ToFloat64(v); ok {
		return f
	}
	return defaultVal
}

// ConfigGetStrings 从 config 取字符串列表。
func ConfigGetStrings(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	return SliceAnyToString(m[key])
}
