package core

import (
	"fmt"
	"sort"
)

// ColumnKind 标记列的物理类型。
type ColumnKind string

const (
	KindInt        ColumnKind = "int"         // 单值整数（类别 id / 计数）
	KindFloat      ColumnKind = "float"       // 单值浮点（连续特征 / 标签）
	KindString     ColumnKind = "string"      // 单值字符串（未编码的类别）
	KindIntList    ColumnKind = "int_list"    // 变长整数列表（multi-hot id）
	KindStringList ColumnKind = "string_list" // 变长字符串列表（未编码的 multi-hot）
)

// Columns 是一次 pull 得到的按列组织的原始数据切片。
//
// 同一个列名只应出现在一个 map 中；所有列的行数应一致，
// 但 Columns 本身不强制，行数校验交给 batch.Assembler。
type Columns struct {
	Ints        map[string][]int64
	Floats      map[string][]float64
	Strings     map[string][]string
	IntLists    map[string][][]int64
	StringLists map[string][][]string
}

// NewColumns 创建空的 Columns
func NewColumns() *Columns {
	return &Columns{
		Ints:        make(map[string][]int64),
		Floats:      make(map[string][]float64),
		Strings:     make(map[string][]string),
		IntLists:    make(map[string][][]int64),
		StringLists: make(map[string][][]string),
	}
}

func (c *Columns) init() {
	if c.Ints == nil {
		c.Ints = make(map[string][]int64)
	}
	if c.Floats == nil {
		c.Floats = make(map[string][]float64)
	}
	if c.Strings == nil {
		c.Strings = make(map[string][]string)
	}
	if c.IntLists == nil {
		c.IntLists = make(map[string][][]int64)
	}
	if c.StringLists == nil {
		c.StringLists = make(map[string][][]string)
	}
}

// drop 从所有 map 中删除列，保证一个列名只属于一种类型
func (c *Columns) drop(name string) {
	delete(c.Ints, name)
	delete(c.Floats, name)
	delete(c.Strings, name)
	delete(c.IntLists, name)
	delete(c.StringLists, name)
}

// SetInts 设置整数列（覆盖同名列）
func (c *Columns) SetInts(name string, v []int64) *Columns {
	c.init()
	c.drop(name)
	c.Ints[name] = v
	return c
}

// SetFloats 设置浮点列
func (c *Columns) SetFloats(name string, v []float64) *Columns {
	c.init()
	c.drop(name)
	c.Floats[name] = v
	return c
}

// SetStrings 设置字符串列
func (c *Columns) SetStrings(name string, v []string) *Columns {
	c.init()
	c.drop(name)
	c.Strings[name] = v
	return c
}

// SetIntLists 设置变长整数列
func (c *Columns) SetIntLists(name string, v [][]int64) *Columns {
	c.init()
	c.drop(name)
	c.IntLists[name] = v
	return c
}

// SetStringLists 设置变长字符串列
func (c *Columns) SetStringLists(name string, v [][]string) *Columns {
	c.init()
	c.drop(name)
	c.StringLists[name] = v
	return c
}

// Kind 返回列的类型，列不存在时 ok 为 false
func (c *Columns) Kind(name string) (ColumnKind, bool) {
	if c == nil {
		return "", false
	}
	if _, ok := c.Ints[name]; ok {
		return KindInt, true
	}
	if _, ok := c.Floats[name]; ok {
		return KindFloat, true
	}
	if _, ok := c.Strings[name]; ok {
		return KindString, true
	}
	if _, ok := c.IntLists[name]; ok {
		return KindIntList, true
	}
	if _, ok := c.StringLists[name]; ok {
		return KindStringList, true
	}
	return "", false
}

// Has 检查列是否存在
func (c *Columns) Has(name string) bool {
	_, ok := c.Kind(name)
	return ok
}

// NumRows 返回某列的行数
func (c *Columns) NumRows(name string) (int, bool) {
	kind, ok := c.Kind(name)
	if !ok {
		return 0, false
	}
	switch kind {
	case KindInt:
		return len(c.Ints[name]), true
	case KindFloat:
		return len(c.Floats[name]), true
	case KindString:
		return len(c.Strings[name]), true
	case KindIntList:
		return len(c.IntLists[name]), true
	default:
		return len(c.StringLists[name]), true
	}
}

// Len 返回所有列共同的行数；列之间行数不一致时返回错误，没有列时返回 0
func (c *Columns) Len() (int, error) {
	n := -1
	for _, name := range c.Names() {
		rows, _ := c.NumRows(name)
		if n < 0 {
			n = rows
			continue
		}
		if rows != n {
			return 0, Errorf(ModuleBatch, ErrorCodeSchemaMismatch,
				"column %q has %d rows, expected %d", name, rows, n)
		}
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// Names 返回所有列名（排序）
func (c *Columns) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Ints)+len(c.Floats)+len(c.Strings)+len(c.IntLists)+len(c.StringLists))
	for k := range c.Ints {
		names = append(names, k)
	}
	for k := range c.Floats {
		names = append(names, k)
	}
	for k := range c.Strings {
		names = append(names, k)
	}
	for k := range c.IntLists {
		names = append(names, k)
	}
	for k := range c.StringLists {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Slice 返回 [start, end) 行区间的拷贝
func (c *Columns) Slice(start, end int) (*Columns, error) {
	if start < 0 || end < start {
		return nil, Errorf(ModuleDataset, ErrorCodeInvalidInput, "invalid slice [%d, %d)", start, end)
	}
	out := NewColumns()
	for name, v := range c.Ints {
		if end > len(v) {
			return nil, sliceErr(name, end, len(v))
		}
		out.Ints[name] = append([]int64(nil), v[start:end]...)
	}
	for name, v := range c.Floats {
		if end > len(v) {
			return nil, sliceErr(name, end, len(v))
		}
		out.Floats[name] = append([]float64(nil), v[start:end]...)
	}
	for name, v := range c.Strings {
		if end > len(v) {
			return nil, sliceErr(name, end, len(v))
		}
		out.Strings[name] = append([]string(nil), v[start:end]...)
	}
	for name, v := range c.IntLists {
		if end > len(v) {
			return nil, sliceErr(name, end, len(v))
		}
		rows := make([][]int64, end-start)
		for i := range rows {
			rows[i] = append([]int64{}, v[start+i]...)
		}
		out.IntLists[name] = rows
	}
	for name, v := range c.StringLists {
		if end > len(v) {
			return nil, sliceErr(name, end, len(v))
		}
		rows := make([][]string, end-start)
		for i := range rows {
			rows[i] = append([]string{}, v[start+i]...)
		}
		out.StringLists[name] = rows
	}
	return out, nil
}

func sliceErr(name string, end, n int) error {
	return Errorf(ModuleDataset, ErrorCodeInvalidInput, "column %q: slice end %d exceeds %d rows", name, end, n)
}

// Clone 浅拷贝 map（列数据共享），用于变换时替换列而不影响输入
func (c *Columns) Clone() *Columns {
	out := NewColumns()
	for k, v := range c.Ints {
		out.Ints[k] = v
	}
	for k, v := range c.Floats {
		out.Floats[k] = v
	}
	for k, v := range c.Strings {
		out.Strings[k] = v
	}
	for k, v := range c.IntLists {
		out.IntLists[k] = v
	}
	for k, v := range c.StringLists {
		out.StringLists[k] = v
	}
	return out
}

// Value 返回某行某列的值（any），用于表达式求值等按行访问的场景
func (c *Columns) Value(name string, row int) (any, error) {
	kind, ok := c.Kind(name)
	if !ok {
		return nil, Errorf(ModuleBatch, ErrorCodeSchemaMismatch, "column %q not found", name)
	}
	n, _ := c.NumRows(name)
	if row < 0 || row >= n {
		return nil, fmt.Errorf("column %q: row %d out of range [0, %d)", name, row, n)
	}
	switch kind {
	case KindInt:
		return c.Ints[name][row], nil
	case KindFloat:
		return c.Floats[name][row], nil
	case KindString:
		return c.Strings[name][row], nil
	case KindIntList:
		return c.IntLists[name][row], nil
	default:
		return c.StringLists[name][row], nil
	}
}

// Concat 按行拼接多段 Columns。各段必须有相同的列名与类型，否则返回 SCHEMA_MISMATCH。
// 外层切片是新分配的，列表列的行切片与输入共享。
func Concat(parts ...*Columns) (*Columns, error) {
	out := NewColumns()
	if len(parts) == 0 {
		return out, nil
	}
	names := parts[0].Names()
	for i, p := range parts {
		if got := p.Names(); !equalNames(got, names) {
			return nil, Errorf(ModuleDataset, ErrorCodeSchemaMismatch,
				"concat: part %d has columns %v, expected %v", i, got, names)
		}
		for _, name := range names {
			kind, _ := p.Kind(name)
			want, _ := parts[0].Kind(name)
			if kind != want {
				return nil, Errorf(ModuleDataset, ErrorCodeSchemaMismatch,
					"concat: column %q is %s in part %d, expected %s", name, kind, i, want)
			}
			switch kind {
			case KindInt:
				out.Ints[name] = append(out.Ints[name], p.Ints[name]...)
			case KindFloat:
				out.Floats[name] = append(out.Floats[name], p.Floats[name]...)
			case KindString:
				out.Strings[name] = append(out.Strings[name], p.Strings[name]...)
			case KindIntList:
				out.IntLists[name] = append(out.IntLists[name], p.IntLists[name]...)
			default:
				out.StringLists[name] = append(out.StringLists[name], p.StringLists[name]...)
			}
		}
	}
	return out, nil
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
