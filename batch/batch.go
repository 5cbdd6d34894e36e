// Package batch 把一次 pull 得到的列式原始数据组装成模型可直接消费的 Batch。
//
// Batch 包含：
//   - 定长类别列：列名 -> B 个 id
//   - 变长类别列：列名 -> ragged.Column（values + offsets）
//   - 连续特征：B 个向量，维度顺序与 Schema.Continuous 一致
//   - 标签：B 个值（可选）
//
// 组装是纯函数，无全局状态，可并发调用；要么返回完整合法的 Batch，要么返回错误。
package batch

import (
	"github.com/miguelusque/NVTabular/ragged"
)

// Batch 是一次训练/推理步骤消费的固定行数数据。
// 由 Assembler 构造后只读。
type Batch struct {
	// Size 行数 B
	Size int

	// Categorical 定长类别列
	Categorical map[string][]int64

	// Ragged 变长类别列
	Ragged map[string]*ragged.Column

	// Continuous 每行一个连续特征向量
	Continuous [][]float64

	// ContinuousNames 连续特征向量的维度名称
	ContinuousNames []string

	// Labels 每行的标签；LabelName 为空时为 nil
	Labels []float64

	// LabelName 标签列名
	LabelName string
}

// Row 是 Batch 中的一行，用于调试、逐行推理等场景。
type Row struct {
	Categorical map[string]int64
	Ragged      map[string][]int64
	Continuous  []float64
	Label       *float64
}

// Row 返回第 i 行的拷贝
func (b *Batch) Row(i int) Row {
	r := Row{
		Categorical: make(map[string]int64, len(b.Categorical)),
		Ragged:      make(map[string][]int64, len(b.Ragged)),
	}
	for name, ids := range b.Categorical {
		r.Categorical[name] = ids[i]
	}
	for name, col := range b.Ragged {
		r.Ragged[name] = col.Row(i)
	}
	if b.Continuous != nil {
		r.Continuous = append([]float64{}, b.Continuous[i]...)
	}
	if b.Labels != nil {
		label := b.Labels[i]
		r.Label = &label
	}
	return r
}

// ContinuousColumn 返回某个连续特征在所有行上的取值
func (b *Batch) ContinuousColumn(name string) ([]float64, bool) {
	idx := -1
	for i, n := range b.ContinuousNames {
		if n == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, b.Size)
	for i, vec := range b.Continuous {
		out[i] = vec[idx]
	}
	return out, true
}

// NumValues 返回所有 ragged 列的 values 总数（观测用）
func (b *Batch) NumValues() int {
	n := 0
	for _, col := range b.Ragged {
		n += col.Len()
	}
	return n
}
