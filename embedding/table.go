// Package embedding 展示模型侧如何消费 ragged 列：按 offsets 顺序查表并按行汇聚。
//
//	table, _ := embedding.NewRandomTable(cat.Cardinality("genres"), embedding.SizeFor(n), 42)
//	vecs, _ := embedding.Pool(b.Ragged["genres"], table, embedding.Mean)
package embedding

import (
	"math"
	"math/rand/v2"

	"github.com/miguelusque/NVTabular/core"
)

// Table 是 rows x dim 的嵌入表，行号即类别 id
type Table struct {
	rows int
	dim  int
	data []float64
}

// NewTable 创建全零嵌入表
func NewTable(rows, dim int) (*Table, error) {
	if rows <= 0 || dim <= 0 {
		return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "embedding: invalid table shape %dx%d", rows, dim)
	}
	return &Table{rows: rows, dim: dim, data: make([]float64, rows*dim)}, nil
}

// NewTableFromRows 由已有向量创建嵌入表，所有向量长度必须一致
func NewTableFromRows(vectors [][]float64) (*Table, error) {
	if len(vectors) == 0 {
		return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "embedding: no vectors")
	}
	t, err := NewTable(len(vectors), len(vectors[0]))
	if err != nil {
		return nil, err
	}
	for i, v := range vectors {
		if err := t.Set(int64(i), v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// NewRandomTable 创建均匀分布 [-0.05, 0.05) 初始化的嵌入表，seed 相同结果相同
func NewRandomTable(rows, dim int, seed uint64) (*Table, error) {
	t, err := NewTable(rows, dim)
	if err != nil {
		return nil, err
	}
	r := rand.New(rand.NewPCG(seed, seed))
	for i := range t.data {
		t.data[i] = r.Float64()*0.1 - 0.05
	}
	return t, nil
}

// Rows 返回行数
func (t *Table) Rows() int { return t.rows }

// Dim 返回向量维度
func (t *Table) Dim() int { return t.dim }

func (t *Table) row(id int64) ([]float64, error) {
	if id < 0 || id >= int64(t.rows) {
		return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "embedding: id %d out of range [0, %d)", id, t.rows)
	}
	start := int(id) * t.dim
	return t.data[start : start+t.dim : start+t.dim], nil
}

// Lookup 返回 id 对应向量的拷贝
func (t *Table) Lookup(id int64) ([]float64, error) {
	v, err := t.row(id)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), v...), nil
}

// Set 覆盖 id 对应的向量
func (t *Table) Set(id int64, vec []float64) error {
	if len(vec) != t.dim {
		return core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "embedding: vector has dim %d, want %d", len(vec), t.dim)
	}
	v, err := t.row(id)
	if err != nil {
		return err
	}
	copy(v, vec)
	return nil
}

// SizeFor 按类别基数给出嵌入维度：max(16, min(512, round(1.6 * n^0.56)))，
// 与 fastai / NVTabular 的经验规则一致
func SizeFor(cardinality int) int {
	if cardinality <= 0 {
		return 0
	}
	size := int(math.Round(1.6 * math.Pow(float64(cardinality), 0.56)))
	return max(minEmbeddingSize, min(maxEmbeddingSize, size))
}

const (
	minEmbeddingSize = 16
	maxEmbeddingSize = 512
)
