package core

import (
	"errors"
	"fmt"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
//
// 使用场景：
//   - ragged 编解码：INVALID_INPUT, MALFORMED_OFFSETS
//   - batch 组装：SCHEMA_MISMATCH
//   - store / service：NOT_FOUND, NOT_SUPPORTED, UNAVAILABLE
type DomainError struct {
	Code    string // 错误代码（如 "MALFORMED_OFFSETS"）
	Message string // 错误消息
	Module  string // 模块名称（如 "ragged", "batch", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 按 Module + Code 匹配，便于 errors.Is(err, ErrStoreNotFound) 这类哨兵比较。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误链中是否存在 DomainError
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链中的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// Errorf 以格式化消息创建领域错误
func Errorf(module, code, format string, args ...any) *DomainError {
	return NewDomainError(module, code, fmt.Sprintf(format, args...))
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效（如行数与声明的 batch size 不符）
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 编解码错误代码
	ErrorCodeMalformedOffsets = "MALFORMED_OFFSETS" // offsets 违反不变式
	ErrorCodeSchemaMismatch   = "SCHEMA_MISMATCH"   // 声明列缺失或行数不一致
)

// 模块名称常量
const (
	ModuleRagged  = "ragged"  // ragged 编解码
	ModuleBatch   = "batch"   // batch 组装
	ModuleDataset = "dataset" // 数据源 / loader
	ModuleFeature = "feature" // 特征变换
	ModuleStore   = "store"   // 存储模块
	ModuleService = "service" // 服务模块
	ModuleConfig  = "config"  // 配置加载
)

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsMalformedOffsets 检查错误是否为 MALFORMED_OFFSETS
func IsMalformedOffsets(err error) bool {
	return hasCode(err, ErrorCodeMalformedOffsets)
}

// IsSchemaMismatch 检查错误是否为 SCHEMA_MISMATCH
func IsSchemaMismatch(err error) bool {
	return hasCode(err, ErrorCodeSchemaMismatch)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// ErrorCode 返回错误链中 DomainError 的代码，不存在时返回 ""
func ErrorCode(err error) string {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code
	}
	return ""
}
