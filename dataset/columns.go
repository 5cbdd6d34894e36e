package dataset

import (
	"math"
	"strings"

	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/pkg/conv"
)

// columnValues 收集一列的原始 Go 值，最后统一写入 core.Columns。
//
// 支持的值：整数、浮点、bool（按 0/1）、string/[]byte、整数或字符串列表（[]any、[]int64、[]string）、nil。
// fixed 非空时直接使用该类型（来自 DuckDB 列类型或此前分块已确定的类型）；
// 否则由非空值推断：列表列由第一个非空列表决定元素类型。
// 空值按类型补齐：整数 0、浮点 NaN、字符串 ""、列表 []。
type columnValues struct {
	name   string
	fixed  core.ColumnKind
	values []any
}

func (c *columnValues) append(v any) {
	c.values = append(c.values, v)
}

func (c *columnValues) kind() (core.ColumnKind, error) {
	if c.fixed != "" {
		return c.fixed, nil
	}
	kind, _, err := c.infer()
	return kind, err
}

// infer 由值推断类型；known 为 false 表示本块没有能确定类型的值（全为 nil 或无类型空列表）
func (c *columnValues) infer() (kind core.ColumnKind, known bool, err error) {
	sawEmptyList := false
	for _, v := range c.values {
		k, empty, err := valueKind(c.name, v)
		if err != nil {
			return "", false, err
		}
		if k == "" {
			continue
		}
		if empty {
			sawEmptyList = true
			continue
		}
		switch {
		case kind == "":
			kind = k
		case kind == k:
		case kind == core.KindInt && k == core.KindFloat:
			kind = core.KindFloat
		case kind == core.KindFloat && k == core.KindInt:
		default:
			return "", false, mixedKinds(c.name, kind, k)
		}
	}
	if kind == "" && sawEmptyList {
		return core.KindIntList, false, nil
	}
	if kind == "" {
		return core.KindFloat, false, nil
	}
	if sawEmptyList && kind != core.KindIntList && kind != core.KindStringList {
		return "", false, mixedKinds(c.name, kind, core.KindIntList)
	}
	return kind, true, nil
}

// valueKind 返回单个值的类型；nil 返回空类型，empty 表示空列表
func valueKind(name string, v any) (kind core.ColumnKind, empty bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string, []byte:
		return core.KindString, false, nil
	case float32, float64:
		return core.KindFloat, false, nil
	case bool:
		return core.KindInt, false, nil
	case []int64, []int32:
		return core.KindIntList, false, nil
	case []string:
		return core.KindStringList, false, nil
	case []any:
		for _, e := range x {
			if e == nil {
				continue
			}
			if conv.IsInteger(e) {
				return core.KindIntList, false, nil
			}
			if _, ok := e.(string); ok {
				return core.KindStringList, false, nil
			}
			return "", false, core.Errorf(core.ModuleDataset, core.ErrorCodeSchemaMismatch,
				"column %q: unsupported list element %T", name, e)
		}
		return core.KindIntList, true, nil
	}
	if conv.IsInteger(v) {
		return core.KindInt, false, nil
	}
	return "", false, core.Errorf(core.ModuleDataset, core.ErrorCodeSchemaMismatch, "column %q: unsupported value %T", name, v)
}

func mixedKinds(name string, a, b core.ColumnKind) error {
	return core.Errorf(core.ModuleDataset, core.ErrorCodeSchemaMismatch, "column %q mixes %s and %s values", name, a, b)
}

// setInto 把收集的值写入 cols
func (c *columnValues) setInto(cols *core.Columns) error {
	kind, err := c.kind()
	if err != nil {
		return err
	}
	bad := func(v any) error {
		return core.Errorf(core.ModuleDataset, core.ErrorCodeSchemaMismatch, "column %q: cannot convert %T to %s", c.name, v, kind)
	}

	switch kind {
	case core.KindInt:
		out := make([]int64, len(c.values))
		for i, v := range c.values {
			if v == nil {
				continue
			}
			n, ok := conv.ToInt64(v)
			if !ok {
				return bad(v)
			}
			out[i] = n
		}
		cols.SetInts(c.name, out)
	case core.KindFloat:
		out := make([]float64, len(c.values))
		for i, v := range c.values {
			if v == nil {
				out[i] = math.NaN()
				continue
			}
			f, ok := conv.ToFloat64(v)
			if !ok {
				return bad(v)
			}
			out[i] = f
		}
		cols.SetFloats(c.name, out)
	case core.KindString:
		out := make([]string, len(c.values))
		for i, v := range c.values {
			if v == nil {
				continue
			}
			s, ok := conv.ToString(v)
			if !ok {
				return bad(v)
			}
			out[i] = s
		}
		cols.SetStrings(c.name, out)
	case core.KindIntList:
		out := make([][]int64, len(c.values))
		for i, v := range c.values {
			row, ok := conv.ToInt64Slice(v)
			if !ok {
				return bad(v)
			}
			out[i] = row
		}
		cols.SetIntLists(c.name, out)
	default:
		out := make([][]string, len(c.values))
		for i, v := range c.values {
			row, ok := conv.ToStringSlice(v)
			if !ok {
				return bad(v)
			}
			out[i] = row
		}
		cols.SetStringLists(c.name, out)
	}
	return nil
}

// kindForDatabaseType 把 DuckDB 列类型名映射为列类型；不支持的类型返回 false，交给按值推断
func kindForDatabaseType(typeName string) (core.ColumnKind, bool) {
	t := strings.ToUpper(strings.TrimSpace(typeName))
	if elem, ok := strings.CutSuffix(t, "[]"); ok {
		switch kind, ok := kindForDatabaseType(elem); {
		case !ok:
			return "", false
		case kind == core.KindInt:
			return core.KindIntList, true
		case kind == core.KindString:
			return core.KindStringList, true
		default:
			return "", false
		}
	}
	switch t {
	case "BOOLEAN", "TINYINT", "SMALLINT", "INTEGER", "BIGINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT":
		return core.KindInt, true
	case "FLOAT", "DOUBLE":
		return core.KindFloat, true
	case "VARCHAR", "ENUM":
		return core.KindString, true
	default:
		return "", false
	}
}
