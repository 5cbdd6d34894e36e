// Package ragged 实现变长（multi-hot）类别特征的批量编解码。
//
// 一个 batch 中某个变长列被表示为两段扁平数组：
//
//	values  = 所有行的元素按行顺序拼接
//	offsets = B+1 个非递减边界，offsets[0] = 0，offsets[B] = len(values)
//
// 第 i 行即 values[offsets[i]:offsets[i+1]]，相邻 offsets 相等表示空行。
// 例如 [[6,9], [2], [18,9,16]] 编码为 values=[6,9,2,18,9,16]，offsets=[0,2,3,6]。
//
// 本包是纯函数：无全局状态、无 I/O、无锁，可被多个 goroutine 并发调用，
// 只要每次调用使用各自的输入。
package ragged

import (
	"github.com/miguelusque/NVTabular/core"
)

// Column 是一个 batch 内某个变长列的编码结果。
// 构造时拷贝输入并校验不变式，之后只读。
type Column struct {
	values  []int64
	offsets []int64
}

// Encode 将 B 行变长列表编码为 Column。
// 单次线性扫描，保持每行元素的顺序与重复次数，不排序、不去重。
// len(rows) 与 batchSize 不一致时返回 INVALID_INPUT。
func Encode(rows [][]int64, batchSize int) (*Column, error) {
	if batchSize < 0 {
		return nil, core.Errorf(core.ModuleRagged, core.ErrorCodeInvalidInput,
			"ragged: negative batch size %d", batchSize)
	}
	if len(rows) != batchSize {
		return nil, core.Errorf(core.ModuleRagged, core.ErrorCodeInvalidInput,
			"ragged: got %d rows, expected batch size %d", len(rows), batchSize)
	}

	total := 0
	for _, row := range rows {
		total += len(row)
	}

	values := make([]int64, 0, total)
	offsets := make([]int64, 1, batchSize+1)
	for _, row := range rows {
		values = append(values, row...)
		offsets = append(offsets, int64(len(values)))
	}
	return &Column{values: values, offsets: offsets}, nil
}

// Decode 将扁平的 values/offsets 还原为 B 行列表。
// offsets 违反不变式时返回 MALFORMED_OFFSETS。
// 返回的行与输入数组不共享内存；空行为非 nil 的空切片。
func Decode(values, offsets []int64, batchSize int) ([][]int64, error) {
	if err := Validate(values, offsets, batchSize); err != nil {
		return nil, err
	}
	return split(clone(values), offsets), nil
}

// Validate 校验 values/offsets 是否构成合法的 B 行 ragged 列：
//   - len(offsets) == B+1
//   - offsets[0] == 0
//   - offsets 非递减
//   - offsets[B] == len(values)
func Validate(values, offsets []int64, batchSize int) error {
	if batchSize < 0 {
		return core.Errorf(core.ModuleRagged, core.ErrorCodeMalformedOffsets,
			"ragged: negative batch size %d", batchSize)
	}
	if len(offsets) != batchSize+1 {
		return core.Errorf(core.ModuleRagged, core.ErrorCodeMalformedOffsets,
			"ragged: offsets has length %d, expected %d", len(offsets), batchSize+1)
	}
	if offsets[0] != 0 {
		return core.Errorf(core.ModuleRagged, core.ErrorCodeMalformedOffsets,
			"ragged: offsets[0] = %d, expected 0", offsets[0])
	}
	for i := 0; i < batchSize; i++ {
		if offsets[i+1] < offsets[i] {
			return core.Errorf(core.ModuleRagged, core.ErrorCodeMalformedOffsets,
				"ragged: offsets decrease at %d (%d > %d)", i, offsets[i], offsets[i+1])
		}
	}
	if last := offsets[batchSize]; last != int64(len(values)) {
		return core.Errorf(core.ModuleRagged, core.ErrorCodeMalformedOffsets,
			"ragged: offsets[%d] = %d, expected len(values) = %d", batchSize, last, len(values))
	}
	return nil
}

// FromParts 用已有的 values/offsets 构造 Column（拷贝并校验）。
// 用于跨进程边界接收 "__values" + "__offsets" 两个张量后的重建。
func FromParts(values, offsets []int64, batchSize int) (*Column, error) {
	if err := Validate(values, offsets, batchSize); err != nil {
		return nil, err
	}
	return &Column{
		values:  append([]int64(nil), values...),
		offsets: append([]int64(nil), offsets...),
	}, nil
}

// FromLengths 用 values + 每行长度构造 Column。
// 用于接收 "__values" + "__nnzs" 两个张量后的重建；
// 长度个数必须为 B，长度不能为负，总和必须等于 len(values)。
func FromLengths(values, lengths []int64, batchSize int) (*Column, error) {
	if len(lengths) != batchSize {
		return nil, core.Errorf(core.ModuleRagged, core.ErrorCodeMalformedOffsets,
			"ragged: got %d row lengths, expected %d", len(lengths), batchSize)
	}
	offsets := make([]int64, batchSize+1)
	for i, n := range lengths {
		if n < 0 {
			return nil, core.Errorf(core.ModuleRagged, core.ErrorCodeMalformedOffsets,
				"ragged: negative length %d at row %d", n, i)
		}
		offsets[i+1] = offsets[i] + n
	}
	return FromParts(values, offsets, batchSize)
}

// BatchSize 返回行数 B；零值 Column 视为空 batch
func (c *Column) BatchSize() int {
	if len(c.offsets) == 0 {
		return 0
	}
	return len(c.offsets) - 1
}

// Len 返回 values 总长度
func (c *Column) Len() int {
	return len(c.values)
}

// Values 返回扁平 values 的拷贝
func (c *Column) Values() []int64 {
	return append([]int64(nil), c.values...)
}

// Offsets 返回 offsets 的拷贝；零值 Column 返回 [0]
func (c *Column) Offsets() []int64 {
	if len(c.offsets) == 0 {
		return []int64{0}
	}
	return append([]int64(nil), c.offsets...)
}

// Lengths 返回每行长度（offsets 的一阶差分）
func (c *Column) Lengths() []int64 {
	lengths := make([]int64, c.BatchSize())
	for i := range lengths {
		lengths[i] = c.offsets[i+1] - c.offsets[i]
	}
	return lengths
}

// RowLen 返回第 i 行长度
func (c *Column) RowLen(i int) int {
	return int(c.offsets[i+1] - c.offsets[i])
}

// Row 返回第 i 行元素的拷贝；i 越界会 panic（与切片下标一致）
func (c *Column) Row(i int) []int64 {
	return append([]int64{}, c.values[c.offsets[i]:c.offsets[i+1]]...)
}

// Each 按 offsets 顺序遍历每一行，fn 收到的切片只读且仅在回调内有效
func (c *Column) Each(fn func(row int, values []int64)) {
	for i := 0; i < c.BatchSize(); i++ {
		lo, hi := c.offsets[i], c.offsets[i+1]
		fn(i, c.values[lo:hi:hi])
	}
}

// Rows 解码为 B 行列表（拷贝）
func (c *Column) Rows() [][]int64 {
	return split(clone(c.values), c.offsets)
}

// MaxRowLen 返回最长行的长度
func (c *Column) MaxRowLen() int {
	longest := 0
	for i := 0; i < c.BatchSize(); i++ {
		if n := c.RowLen(i); n > longest {
			longest = n
		}
	}
	return longest
}

// clone 总是返回非 nil 切片，保证空行解码为 []int64{} 而不是 nil
func clone(values []int64) []int64 {
	out := make([]int64, len(values))
	copy(out, values)
	return out
}

// split 按 offsets 切分已拷贝的 values，每行使用满切片表达式避免 append 越界写
func split(values, offsets []int64) [][]int64 {
	if len(offsets) == 0 {
		return [][]int64{}
	}
	rows := make([][]int64, len(offsets)-1)
	for i := range rows {
		lo, hi := offsets[i], offsets[i+1]
		rows[i] = values[lo:hi:hi]
	}
	return rows
}
