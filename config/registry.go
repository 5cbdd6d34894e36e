package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/feature"
)

// 使用配置驱动时，需在 main 或入口处 import _ "github.com/miguelusque/NVTabular/config/builders"
// 以触发内置变换（categorify、split_multihot、normalize、fill_missing、derive）的 init 注册。

// OpBuilder 根据 config 构建一个列变换。
// 各变换在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type OpBuilder func(cfg map[string]any) (feature.Op, error)

var (
	defaultBuilders   = make(map[string]OpBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种变换的构建逻辑。
// 建议在 init 中调用，例如：func init() { config.Register("categorify", BuildCategorify) }
func Register(typeName string, builder OpBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的变换类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// BuildOp 按类型构建一个变换
func BuildOp(typeName string, cfg map[string]any) (feature.Op, error) {
	defaultBuildersMu.RLock()
	builder, ok := defaultBuilders[typeName]
	defaultBuildersMu.RUnlock()
	if !ok {
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeNotSupported,
			"unsupported transform type %q (supported: %v)", typeName, SupportedTypes())
	}
	op, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build transform %s: %w", typeName, err)
	}
	return op, nil
}

// ValidateTransforms 校验所有变换类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidateTransforms(transforms []TransformConfig) error {
	supported := SupportedTypes()
	for _, tc := range transforms {
		defaultBuildersMu.RLock()
		_, ok := defaultBuilders[tc.Type]
		defaultBuildersMu.RUnlock()
		if !ok {
			return core.Errorf(core.ModuleConfig, core.ErrorCodeNotSupported,
				"unsupported transform type %q (supported: %v)", tc.Type, supported)
		}
	}
	return nil
}
