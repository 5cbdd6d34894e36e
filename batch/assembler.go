package batch

import (
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/ragged"
)

// Assembler 按 Schema 把 core.Columns 组装为 Batch。
// 不持有可变状态，多个 goroutine 可共享同一个 Assembler。
type Assembler struct {
	schema Schema
}

// NewAssembler 创建组装器，Schema 非法时返回错误
func NewAssembler(schema Schema) (*Assembler, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{schema: schema}, nil
}

// Schema 返回组装器使用的 Schema
func (a *Assembler) Schema() Schema {
	return a.schema
}

// Assemble 把一次 pull 的列式数据组装为 Batch。
//
// 失败（SCHEMA_MISMATCH）：
//   - 声明的列在 cols 中不存在，或类型不兼容
//   - 各列行数不一致
//
// 没有部分成功：出错时不返回任何 Batch。
func (a *Assembler) Assemble(cols *core.Columns) (*Batch, error) {
	if cols == nil {
		return nil, core.Errorf(core.ModuleBatch, core.ErrorCodeSchemaMismatch,
			"schema %q: no columns to assemble", a.schema.Name)
	}
	size, err := a.rowCount(cols)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		Size:            size,
		Categorical:     make(map[string][]int64, len(a.schema.Categorical)),
		Ragged:          make(map[string]*ragged.Column, len(a.schema.Ragged)),
		ContinuousNames: append([]string{}, a.schema.Continuous...),
		LabelName:       a.schema.Label(),
	}

	for _, name := range a.schema.Categorical {
		ids, ok := cols.Ints[name]
		if !ok {
			return nil, a.kindMismatch(cols, name, core.KindInt)
		}
		b.Categorical[name] = append([]int64{}, ids...)
	}

	for _, name := range a.schema.Ragged {
		rows, ok := cols.IntLists[name]
		if !ok {
			return nil, a.kindMismatch(cols, name, core.KindIntList)
		}
		col, err := ragged.Encode(rows, size)
		if err != nil {
			return nil, err
		}
		b.Ragged[name] = col
	}

	b.Continuous = make([][]float64, size)
	for i := range b.Continuous {
		b.Continuous[i] = make([]float64, len(a.schema.Continuous))
	}
	for j, name := range a.schema.Continuous {
		values, err := a.numeric(cols, name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			b.Continuous[i][j] = v
		}
	}

	if label := a.schema.Label(); label != "" {
		values, err := a.numeric(cols, label)
		if err != nil {
			return nil, err
		}
		b.Labels = values
	}

	return b, nil
}

// rowCount 检查所有声明列存在且行数一致，返回 B
func (a *Assembler) rowCount(cols *core.Columns) (int, error) {
	size := -1
	first := ""
	for _, name := range a.schema.Columns() {
		n, ok := cols.NumRows(name)
		if !ok {
			return 0, core.Errorf(core.ModuleBatch, core.ErrorCodeSchemaMismatch,
				"schema %q: declared column %q is absent", a.schema.Name, name)
		}
		if size < 0 {
			size, first = n, name
			continue
		}
		if n != size {
			return 0, core.Errorf(core.ModuleBatch, core.ErrorCodeSchemaMismatch,
				"schema %q: column %q has %d rows but %q has %d", a.schema.Name, name, n, first, size)
		}
	}
	if size < 0 {
		return 0, core.Errorf(core.ModuleBatch, core.ErrorCodeSchemaMismatch,
			"schema %q declares no columns", a.schema.Name)
	}
	return size, nil
}

// numeric 读取连续特征或标签列，整数列转为 float64
func (a *Assembler) numeric(cols *core.Columns, name string) ([]float64, error) {
	if v, ok := cols.Floats[name]; ok {
		return append([]float64{}, v...), nil
	}
	if v, ok := cols.Ints[name]; ok {
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, a.kindMismatch(cols, name, core.KindFloat)
}

func (a *Assembler) kindMismatch(cols *core.Columns, name string, want core.ColumnKind) error {
	got, _ := cols.Kind(name)
	return core.Errorf(core.ModuleBatch, core.ErrorCodeSchemaMismatch,
		"schema %q: column %q is %s, expected %s", a.schema.Name, name, got, want)
}
