package service

import (
	"sort"

	"github.com/miguelusque/NVTabular/batch"
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/ragged"
)

// ragged 列在线上被拆成两个扁平张量：<name>__values 与 <name>__nnzs（或 <name>__offsets）
const (
	ValuesSuffix  = "__values"
	NnzsSuffix    = "__nnzs"
	OffsetsSuffix = "__offsets"
)

// RaggedEncoding ragged 列的第二个张量用行长还是 offsets
type RaggedEncoding string

const (
	RaggedLengths RaggedEncoding = "nnzs"    // [B] 每行长度（默认）
	RaggedOffsets RaggedEncoding = "offsets" // [B+1] offsets
)

// TensorOptions 控制 Batch 与张量之间的转换
type TensorOptions struct {
	// Ragged 编码方式；解码时为空表示两种都接受
	Ragged RaggedEncoding

	// IncludeLabel 编码时是否附带标签张量
	IncludeLabel bool
}

// EncodeBatch 把 Batch 编码为推理请求的输入张量。
//
//   - 定长类别列：[B, 1] INT64
//   - ragged 列：<name>__values [nnz] INT64 + <name>__nnzs [B] INT64（或 <name>__offsets [B+1] INT64）
//   - 连续特征：每列 [B, 1] FP32
//   - 标签（IncludeLabel）：[B, 1] FP32
//
// 张量顺序：类别列、ragged 列（按名称排序），连续列（按 Schema 顺序），标签。
func EncodeBatch(b *batch.Batch, opts TensorOptions) ([]core.Tensor, error) {
	if b == nil {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "nil batch")
	}
	if opts.Ragged == "" {
		opts.Ragged = RaggedLengths
	}
	if opts.Ragged != RaggedLengths && opts.Ragged != RaggedOffsets {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeInvalidInput, "unknown ragged encoding %q", opts.Ragged)
	}
	rows := int64(b.Size)

	tensors := make([]core.Tensor, 0, len(b.Categorical)+2*len(b.Ragged)+len(b.ContinuousNames)+1)
	for _, name := range sortedKeys(b.Categorical) {
		tensors = append(tensors, core.Tensor{
			Name:     name,
			Shape:    []int64{rows, 1},
			Datatype: core.DatatypeINT64,
			Ints:     append([]int64{}, b.Categorical[name]...),
		})
	}

	for _, name := range sortedKeys(b.Ragged) {
		col := b.Ragged[name]
		values := col.Values()
		tensors = append(tensors, core.Tensor{
			Name:     name + ValuesSuffix,
			Shape:    []int64{int64(len(values))},
			Datatype: core.DatatypeINT64,
			Ints:     values,
		})
		if opts.Ragged == RaggedOffsets {
			offsets := col.Offsets()
			tensors = append(tensors, core.Tensor{
				Name:     name + OffsetsSuffix,
				Shape:    []int64{int64(len(offsets))},
				Datatype: core.DatatypeINT64,
				Ints:     offsets,
			})
		} else {
			tensors = append(tensors, core.Tensor{
				Name:     name + NnzsSuffix,
				Shape:    []int64{rows},
				Datatype: core.DatatypeINT64,
				Ints:     col.Lengths(),
			})
		}
	}

	for _, name := range b.ContinuousNames {
		v, _ := b.ContinuousColumn(name)
		tensors = append(tensors, floatTensor(name, v))
	}

	if opts.IncludeLabel && b.LabelName != "" {
		tensors = append(tensors, floatTensor(b.LabelName, append([]float64{}, b.Labels...)))
	}
	return tensors, nil
}

func floatTensor(name string, v []float64) core.Tensor {
	return core.Tensor{
		Name:     name,
		Shape:    []int64{int64(len(v)), 1},
		Datatype: core.DatatypeFP32,
		Floats:   v,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DecodeTensors 按 Schema 把张量还原成 Batch，ragged 列经过完整校验。
// 标签张量缺失时 Batch 不带标签（在线推理请求通常没有标签）。
func DecodeTensors(tensors []core.Tensor, schema batch.Schema, opts TensorOptions) (*batch.Batch, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	byName := make(map[string]*core.Tensor, len(tensors))
	for i := range tensors {
		byName[tensors[i].Name] = &tensors[i]
	}
	d := &tensorDecoder{byName: byName, rows: -1}

	b := &batch.Batch{
		Categorical:     make(map[string][]int64, len(schema.Categorical)),
		Ragged:          make(map[string]*ragged.Column, len(schema.Ragged)),
		ContinuousNames: append([]string{}, schema.Continuous...),
	}

	for _, name := range schema.Categorical {
		v, err := d.ints(name)
		if err != nil {
			return nil, err
		}
		if err := d.setRows(name, len(v)); err != nil {
			return nil, err
		}
		b.Categorical[name] = v
	}

	for _, name := range schema.Ragged {
		col, err := d.ragged(name, opts.Ragged)
		if err != nil {
			return nil, err
		}
		if err := d.setRows(name, col.BatchSize()); err != nil {
			return nil, err
		}
		b.Ragged[name] = col
	}

	columns := make([][]float64, len(schema.Continuous))
	for j, name := range schema.Continuous {
		v, err := d.floats(name)
		if err != nil {
			return nil, err
		}
		if err := d.setRows(name, len(v)); err != nil {
			return nil, err
		}
		columns[j] = v
	}

	if label := schema.Label(); label != "" {
		if _, ok := byName[label]; ok {
			v, err := d.floats(label)
			if err != nil {
				return nil, err
			}
			if err := d.setRows(label, len(v)); err != nil {
				return nil, err
			}
			b.Labels = v
			b.LabelName = label
		}
	}

	if d.rows < 0 {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeSchemaMismatch, "schema declares no columns")
	}
	b.Size = d.rows
	b.Continuous = make([][]float64, b.Size)
	for i := range b.Continuous {
		vec := make([]float64, len(columns))
		for j := range columns {
			vec[j] = columns[j][i]
		}
		b.Continuous[i] = vec
	}
	return b, nil
}

type tensorDecoder struct {
	byName map[string]*core.Tensor
	rows   int
}

func (d *tensorDecoder) setRows(name string, n int) error {
	if d.rows < 0 {
		d.rows = n
		return nil
	}
	if n != d.rows {
		return core.Errorf(core.ModuleService, core.ErrorCodeSchemaMismatch, "tensor %q has %d rows, expected %d", name, n, d.rows)
	}
	return nil
}

func (d *tensorDecoder) tensor(name string) (*core.Tensor, error) {
	t, ok := d.byName[name]
	if !ok {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeSchemaMismatch, "missing tensor %q", name)
	}
	return t, nil
}

func (d *tensorDecoder) ints(name string) ([]int64, error) {
	t, err := d.tensor(name)
	if err != nil {
		return nil, err
	}
	if t.Datatype != core.DatatypeINT64 && t.Datatype != core.DatatypeINT32 {
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeSchemaMismatch, "tensor %q has datatype %s, want INT64", name, t.Datatype)
	}
	return append([]int64{}, t.Ints...), nil
}

func (d *tensorDecoder) floats(name string) ([]float64, error) {
	t, err := d.tensor(name)
	if err != nil {
		return nil, err
	}
	switch t.Datatype {
	case core.DatatypeFP32, core.DatatypeFP64:
		return append([]float64{}, t.Floats...), nil
	case core.DatatypeINT64, core.DatatypeINT32:
		out := make([]float64, len(t.Ints))
		for i, v := range t.Ints {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, core.Errorf(core.ModuleService, core.ErrorCodeSchemaMismatch, "tensor %q has datatype %s, want FP32", name, t.Datatype)
	}
}

func (d *tensorDecoder) ragged(name string, enc RaggedEncoding) (*ragged.Column, error) {
	values, err := d.ints(name + ValuesSuffix)
	if err != nil {
		return nil, err
	}
	_, hasNnzs := d.byName[name+NnzsSuffix]
	if enc == RaggedLengths || (enc == "" && hasNnzs) {
		lengths, err := d.ints(name + NnzsSuffix)
		if err != nil {
			return nil, err
		}
		return ragged.FromLengths(values, lengths, len(lengths))
	}
	offsets, err := d.ints(name + OffsetsSuffix)
	if err != nil {
		return nil, err
	}
	batchSize := len(offsets) - 1
	if d.rows >= 0 {
		batchSize = d.rows
	}
	return ragged.FromParts(values, offsets, batchSize)
}
