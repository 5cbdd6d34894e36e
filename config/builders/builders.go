// Package builders 注册内置的列变换构建器，import _ 即可在配置中使用。
package builders

import (
	"github.com/miguelusque/NVTabular/config"
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/feature"
	"github.com/miguelusque/NVTabular/pkg/conv"
)

func init() {
	config.Register("split_multihot", BuildSplitMultiHot)
	config.Register("categorify", BuildCategorify)
	config.Register("normalize", BuildNormalize)
	config.Register("fill_missing", BuildFillMissing)
	config.Register("derive", BuildDerive)
}

func invalid(format string, args ...any) error {
	return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, format, args...)
}

func columnsOf(cfg map[string]any) ([]string, error) {
	columns := conv.ConfigGetStrings(cfg, "columns")
	if len(columns) == 0 {
		if c := conv.ConfigGet(cfg, "column", ""); c != "" {
			columns = []string{c}
		}
	}
	if len(columns) == 0 {
		return nil, invalid("columns not found")
	}
	return columns, nil
}

// BuildSplitMultiHot 配置：column, sep（默认 "|"）
func BuildSplitMultiHot(cfg map[string]any) (feature.Op, error) {
	column := conv.ConfigGet(cfg, "column", "")
	if column == "" {
		return nil, invalid("column not found")
	}
	return feature.SplitMultiHot(column, conv.ConfigGet(cfg, "sep", "|")), nil
}

// BuildCategorify 配置：columns, freq_threshold, num_buckets
func BuildCategorify(cfg map[string]any) (feature.Op, error) {
	columns, err := columnsOf(cfg)
	if err != nil {
		return nil, err
	}
	var opts []feature.CategorifyOption
	if n := conv.ConfigGetInt64(cfg, "freq_threshold", 0); n > 0 {
		opts = append(opts, feature.WithFreqThreshold(int(n)))
	}
	if n := conv.ConfigGetInt64(cfg, "num_buckets", 0); n > 0 {
		opts = append(opts, feature.WithNumBuckets(int(n)))
	}
	return feature.NewCategorify(columns, opts...), nil
}

// BuildNormalize 配置：columns
func BuildNormalize(cfg map[string]any) (feature.Op, error) {
	columns, err := columnsOf(cfg)
	if err != nil {
		return nil, err
	}
	return feature.NewNormalize(columns...), nil
}

// BuildFillMissing 配置：columns, strategy（constant/mean/median）, value
func BuildFillMissing(cfg map[string]any) (feature.Op, error) {
	columns, err := columnsOf(cfg)
	if err != nil {
		return nil, err
	}
	strategy := conv.ConfigGet(cfg, "strategy", feature.FillConstant)
	f, err := feature.NewFillMissing(strategy, conv.ConfigGetFloat64(cfg, "value", 0), columns...)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// BuildDerive 配置：name, expr
func BuildDerive(cfg map[string]any) (feature.Op, error) {
	name := conv.ConfigGet(cfg, "name", "")
	expr := conv.ConfigGet(cfg, "expr", "")
	if name == "" || expr == "" {
		return nil, invalid("derive needs name and expr")
	}
	d, err := feature.NewDerive(name, expr)
	if err != nil {
		return nil, err
	}
	return d, nil
}
