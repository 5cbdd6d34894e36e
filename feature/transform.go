package feature

import (
	"context"

	"github.com/miguelusque/NVTabular/core"
)

// Op 是列变换算子：输入一批列，返回变换后的列，不修改输入。
type Op interface {
	Transform(cols *core.Columns) (*core.Columns, error)
}

// Fitter 是需要先统计数据的算子（Categorify、Normalize、FillMissing）。
// Partial 可以多次调用累积统计量，Finalize 结束拟合。
type Fitter interface {
	Op
	Partial(cols *core.Columns) error
	Finalize() error
}

// Transform 是函数形式的 Op
type Transform func(cols *core.Columns) (*core.Columns, error)

// Transform 实现 Op
func (f Transform) Transform(cols *core.Columns) (*core.Columns, error) {
	return f(cols)
}

// Workflow 按顺序串联算子。
// 拟合时每个 Fitter 看到的是它之前所有算子变换后的数据。
type Workflow struct {
	ops []Op
}

// NewWorkflow 创建 Workflow
func NewWorkflow(ops ...Op) *Workflow {
	return &Workflow{ops: ops}
}

// Ops 返回算子列表
func (w *Workflow) Ops() []Op {
	return w.ops
}

// Transform 依次执行所有算子
func (w *Workflow) Transform(cols *core.Columns) (*core.Columns, error) {
	return applyOps(w.ops, cols)
}

// Fit 从 Source 分块读取数据拟合所有 Fitter，每个 Fitter 完整扫描一遍数据。
func (w *Workflow) Fit(ctx context.Context, src core.Source, chunkSize int) error {
	if chunkSize <= 0 {
		return core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: chunk size must be positive, got %d", chunkSize)
	}
	total, err := src.NumRows(ctx)
	if err != nil {
		return err
	}
	for i, op := range w.ops {
		f, ok := op.(Fitter)
		if !ok {
			continue
		}
		for offset := 0; offset < total; offset += chunkSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			cols, err := src.Read(ctx, offset, chunkSize)
			if err != nil {
				return err
			}
			if cols, err = applyOps(w.ops[:i], cols); err != nil {
				return err
			}
			if err := f.Partial(cols); err != nil {
				return err
			}
		}
		if err := f.Finalize(); err != nil {
			return err
		}
	}
	return nil
}

// FitColumns 用内存中的一批数据拟合（测试与小数据集）
func (w *Workflow) FitColumns(cols *core.Columns) error {
	for i, op := range w.ops {
		f, ok := op.(Fitter)
		if !ok {
			continue
		}
		in, err := applyOps(w.ops[:i], cols)
		if err != nil {
			return err
		}
		if err := f.Partial(in); err != nil {
			return err
		}
		if err := f.Finalize(); err != nil {
			return err
		}
	}
	return nil
}

func applyOps(ops []Op, cols *core.Columns) (*core.Columns, error) {
	var err error
	for _, op := range ops {
		if cols, err = op.Transform(cols); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// missingColumn 返回列不存在的错误
func missingColumn(name string) error {
	return core.Errorf(core.ModuleFeature, core.ErrorCodeSchemaMismatch, "feature: column %q not found", name)
}

// wrongKind 返回列类型不支持的错误
func wrongKind(op, name string, kind core.ColumnKind) error {
	return core.Errorf(core.ModuleFeature, core.ErrorCodeSchemaMismatch, "feature: %s does not support column %q of kind %s", op, name, kind)
}
