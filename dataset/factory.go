package dataset

import (
	"sort"
	"sync"

	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/pkg/conv"
)

// SourceBuilder 根据配置构建数据源。
// 各实现在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type SourceBuilder func(cfg map[string]any) (core.Source, error)

var (
	builders   = make(map[string]SourceBuilder)
	buildersMu sync.RWMutex
)

func init() {
	Register(FormatParquet, fileSourceBuilder(FormatParquet))
	Register(FormatCSV, fileSourceBuilder(FormatCSV))
	Register("feast", buildFeastSource)
}

// Register 注册一种数据源的构建逻辑，同名覆盖
func Register(typeName string, builder SourceBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[typeName] = builder
}

// SupportedTypes 返回已注册的数据源类型（排序），用于错误提示与校验
func SupportedTypes() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	types := make([]string, 0, len(builders))
	for t := range builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Build 按类型名构建数据源；未注册的类型返回 NOT_SUPPORTED 并列出已支持的类型
func Build(typeName string, cfg map[string]any) (core.Source, error) {
	buildersMu.RLock()
	builder, ok := builders[typeName]
	buildersMu.RUnlock()
	if !ok {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeNotSupported,
			"unsupported source type %q (supported: %v)", typeName, SupportedTypes())
	}
	return builder(cfg)
}

// fileSourceBuilder 配置：path（必填）、columns（可选）
func fileSourceBuilder(format string) SourceBuilder {
	return func(cfg map[string]any) (core.Source, error) {
		src, err := NewFileSource(format, conv.ConfigGet(cfg, "path", ""), conv.ConfigGetStrings(cfg, "columns")...)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
}

// buildFeastSource 配置：host、port、token、tls、project、features、entities（实体 map 列表）
func buildFeastSource(cfg map[string]any) (core.Source, error) {
	raw, _ := cfg["entities"].([]any)
	entities := make([]map[string]any, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "feast entity must be a map, got %T", e)
		}
		entities = append(entities, m)
	}
	src, err := DialFeast(
		FeastDialConfig{
			Host:  conv.ConfigGet(cfg, "host", "localhost"),
			Port:  int(conv.ConfigGetInt64(cfg, "port", 6565)),
			Token: conv.ConfigGet(cfg, "token", ""),
			TLS:   conv.ConfigGet(cfg, "tls", false),
		},
		conv.ConfigGet(cfg, "project", ""),
		conv.ConfigGetStrings(cfg, "features"),
		entities,
	)
	if err != nil {
		return nil, err
	}
	return src, nil
}
