package core

import "context"

// Source 是数据源的领域接口：按行区间提供列式数据切片。
//
// 设计原则：
//   - 只负责“读”，不关心 batch 大小、预取、变换
//   - 返回的 Columns 属于调用方，Source 不再持有或修改
//   - 文件格式、分片、存储介质对调用方透明
//
// 实现：
//   - dataset.MemorySource：内存列
//   - dataset.FileSource：Parquet / CSV（DuckDB）
//   - dataset.FeastSource：Feast 在线特征
type Source interface {
	// Name 返回数据源名称（用于日志/监控）
	Name() string

	// NumRows 返回总行数
	NumRows(ctx context.Context) (int, error)

	// Read 读取 [offset, offset+limit) 行；越过末尾时返回实际剩余的行
	Read(ctx context.Context, offset, limit int) (*Columns, error)

	// Close 释放资源
	Close() error
}
