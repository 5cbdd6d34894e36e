package embedding

import (
	"math"
	"strings"

	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/ragged"
)

// Combiner 决定一行中多个嵌入向量如何汇聚成一个
type Combiner string

const (
	Sum   Combiner = "sum"   // 逐元素求和（默认）
	Mean  Combiner = "mean"  // 求和后除以行长
	SqrtN Combiner = "sqrtn" // 求和后除以 sqrt(行长)
	Max   Combiner = "max"   // 逐元素取最大
)

// ParseCombiner 解析汇聚方式，空字符串为 sum
func ParseCombiner(s string) (Combiner, error) {
	switch c := Combiner(strings.ToLower(s)); c {
	case "":
		return Sum, nil
	case Sum, Mean, SqrtN, Max:
		return c, nil
	default:
		return "", core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "embedding: unknown combiner %q", s)
	}
}

// Pool 对 ragged 列的每一行查表并汇聚，返回 batch_size 个 dim 维向量。
// 空行得到零向量；values 按 offsets 顺序访问。
func Pool(col *ragged.Column, table *Table, combiner Combiner) ([][]float64, error) {
	if combiner == "" {
		combiner = Sum
	}
	if _, err := ParseCombiner(string(combiner)); err != nil {
		return nil, err
	}

	out := make([][]float64, col.BatchSize())
	var firstErr error
	col.Each(func(row int, ids []int64) {
		if firstErr != nil {
			return
		}
		vec := make([]float64, table.Dim())
		out[row] = vec
		for j, id := range ids {
			emb, err := table.row(id)
			if err != nil {
				firstErr = err
				return
			}
			for k, x := range emb {
				switch {
				case combiner != Max:
					vec[k] += x
				case j == 0:
					vec[k] = x
				default:
					vec[k] = math.Max(vec[k], x)
				}
			}
		}
		switch n := float64(len(ids)); {
		case n == 0:
		case combiner == Mean:
			scale(vec, 1/n)
		case combiner == SqrtN:
			scale(vec, 1/math.Sqrt(n))
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func scale(v []float64, f float64) {
	for i := range v {
		v[i] *= f
	}
}

// LookupFixed 对单值类别列逐个查表
func LookupFixed(ids []int64, table *Table) ([][]float64, error) {
	out := make([][]float64, len(ids))
	for i, id := range ids {
		v, err := table.Lookup(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
