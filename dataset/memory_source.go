package dataset

import (
	"context"

	"github.com/miguelusque/NVTabular/core"
)

// MemorySource 是内存列的数据源，用于测试与已经在内存中的小数据集
type MemorySource struct {
	name string
	cols *core.Columns
	rows int
}

// NewMemorySource 创建 MemorySource；列之间行数不一致时返回 SCHEMA_MISMATCH
func NewMemorySource(name string, cols *core.Columns) (*MemorySource, error) {
	if cols == nil {
		cols = core.NewColumns()
	}
	n, err := cols.Len()
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = "memory"
	}
	return &MemorySource{name: name, cols: cols, rows: n}, nil
}

func (s *MemorySource) Name() string { return s.name }

func (s *MemorySource) NumRows(ctx context.Context) (int, error) {
	return s.rows, nil
}

// Read 返回 [offset, offset+limit) 行的拷贝
func (s *MemorySource) Read(ctx context.Context, offset, limit int) (*core.Columns, error) {
	start, end, err := clampRange(offset, limit, s.rows)
	if err != nil {
		return nil, err
	}
	return s.cols.Slice(start, end)
}

func (s *MemorySource) Close() error { return nil }

// Materialize 分块读完 src 并缓存为 MemorySource，
// 用于多个 epoch 反复读取远端数据源（如 Feast）时只拉取一次。
func Materialize(ctx context.Context, src core.Source, chunkSize int) (*MemorySource, error) {
	if chunkSize <= 0 {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "chunk size must be positive, got %d", chunkSize)
	}
	total, err := src.NumRows(ctx)
	if err != nil {
		return nil, err
	}
	parts := make([]*core.Columns, 0, total/chunkSize+1)
	for offset := 0; offset < total; offset += chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cols, err := src.Read(ctx, offset, chunkSize)
		if err != nil {
			return nil, err
		}
		parts = append(parts, cols)
	}
	cols, err := core.Concat(parts...)
	if err != nil {
		return nil, err
	}
	return NewMemorySource(src.Name(), cols)
}

// clampRange 校验分页参数并把区间截断到 [0, total)
func clampRange(offset, limit, total int) (int, int, error) {
	if offset < 0 || limit < 0 {
		return 0, 0, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "invalid range offset=%d limit=%d", offset, limit)
	}
	start := min(offset, total)
	end := min(offset+limit, total)
	return start, end, nil
}

var _ core.Source = (*MemorySource)(nil)
