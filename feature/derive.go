package feature

import (
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/pkg/dsl"
)

// Derive 用 CEL 表达式从已有列计算新的连续列。
// 表达式通过 row.<列名> 访问当前行，结果为数值或布尔（true -> 1, false -> 0）。
//
//	d, _ := feature.NewDerive("liked", "row.rating >= 4.0")
type Derive struct {
	name string
	expr *dsl.Expr
}

// NewDerive 编译表达式
func NewDerive(name, expr string) (*Derive, error) {
	if name == "" {
		return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: derived column needs a name")
	}
	e, err := dsl.Compile(expr)
	if err != nil {
		return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: derive %q: %v", name, err)
	}
	return &Derive{name: name, expr: e}, nil
}

// Name 返回输出列名
func (d *Derive) Name() string {
	return d.name
}

// Transform 逐行求值，结果写入 Floats[name]
func (d *Derive) Transform(cols *core.Columns) (*core.Columns, error) {
	n, err := cols.Len()
	if err != nil {
		return nil, err
	}
	names := cols.Names()
	out := make([]float64, n)
	row := make(map[string]any, len(names))
	for i := 0; i < n; i++ {
		for _, name := range names {
			v, err := cols.Value(name, i)
			if err != nil {
				return nil, err
			}
			row[name] = v
		}
		if out[i], err = d.expr.EvalFloat(row); err != nil {
			return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: derive %q row %d: %v", d.name, i, err)
		}
	}
	return cols.Clone().SetFloats(d.name, out), nil
}
