// Package nvtabular 是一个把 multi-hot 类别特征打包成 ragged batch 的工具包。
//
// 设计要点：
// - Ragged-first: 变长列统一表示为 values + offsets（B+1 个，首 0、非递减、末值 = len(values)）
// - 编解码是纯函数，不依赖全局状态；日志、指标只出现在 loader 与 serving 这类协作者中
// - Source → Transform → Assemble → Consume：数据源、变换、推理服务都可按注册表插拔
package nvtabular

import (
	"github.com/miguelusque/NVTabular/batch"
	"github.com/miguelusque/NVTabular/ragged"
)

// 轻量 facade：便于用户直接 import 根包使用核心抽象。
type (
	Column    = ragged.Column
	Batch     = batch.Batch
	Schema    = batch.Schema
	Assembler = batch.Assembler
)

var (
	Encode       = ragged.Encode
	Decode       = ragged.Decode
	Validate     = ragged.Validate
	NewAssembler = batch.NewAssembler
)
