package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/miguelusque/NVTabular/batch"
	"github.com/miguelusque/NVTabular/core"
	"github.com/miguelusque/NVTabular/pkg/logging"
	"github.com/miguelusque/NVTabular/service"
)

// Config 是应用配置（支持 YAML/JSON）。
//
//	dataset:
//	  type: parquet
//	  config: {path: ratings.parquet}
//	schema:
//	  categorical: [userId, movieId]
//	  ragged: [genres]
//	  labels: [liked]
//	loader: {batch_size: 1024, workers: 4, prefetch: 2, shuffle: true, seed: 42}
//	transforms:
//	  - {type: split_multihot, config: {column: genres, sep: "|"}}
//	  - {type: categorify, config: {columns: [genres]}}
//	  - {type: derive, config: {name: liked, expr: "row.rating >= 4.0"}}
//	serving: {type: triton, endpoint: "http://localhost:8000", model_name: dlrm}
//	store: {type: redis, config: {addr: "localhost:6379"}}
//	logging: {level: info, format: json}
type Config struct {
	Dataset    DatasetConfig          `yaml:"dataset" json:"dataset"`
	Schema     batch.Schema           `yaml:"schema" json:"schema"`
	Loader     LoaderConfig           `yaml:"loader" json:"loader"`
	Transforms []TransformConfig      `yaml:"transforms" json:"transforms"`
	Serving    *service.ServiceConfig `yaml:"serving" json:"serving"`
	Store      *StoreConfig           `yaml:"store" json:"store"`
	Logging    logging.Config         `yaml:"logging" json:"logging"`
}

// DatasetConfig 数据源：type 对应 dataset.Register 注册的类型
type DatasetConfig struct {
	Type   string         `yaml:"type" json:"type"`
	Config map[string]any `yaml:"config" json:"config"`
	// Cache 为 true 时先把整个数据源读入内存，多 epoch 或远端数据源时使用
	Cache bool `yaml:"cache" json:"cache"`
}

// LoaderConfig 对应 dataset.Loader 的选项
type LoaderConfig struct {
	BatchSize int    `yaml:"batch_size" json:"batch_size"`
	DropLast  bool   `yaml:"drop_last" json:"drop_last"`
	Shuffle   bool   `yaml:"shuffle" json:"shuffle"`
	Seed      uint64 `yaml:"seed" json:"seed"`
	Prefetch  int    `yaml:"prefetch" json:"prefetch"`
	Workers   int    `yaml:"workers" json:"workers"`
}

// TransformConfig 单个列变换；type 对应 config.Register 注册的类型
type TransformConfig struct {
	Type   string         `yaml:"type" json:"type"`
	Config map[string]any `yaml:"config" json:"config"`
}

// StoreConfig 词表与统计量的持久化存储
type StoreConfig struct {
	Type   string         `yaml:"type" json:"type"` // memory / redis
	Prefix string         `yaml:"prefix" json:"prefix"`
	Config map[string]any `yaml:"config" json:"config"`
}

// Load 按扩展名加载配置：.json 用 JSON，其余按 YAML 解析。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeNotFound, "read file: %v", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML 解析 YAML 配置并校验
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "parse yaml: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseJSON 解析 JSON 配置并校验
func ParseJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "parse json: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验各段配置。变换类型在 BuildTransforms 时检查，
// 因为内置变换要 import config/builders 后才注册。
func (c *Config) Validate() error {
	if c.Dataset.Type == "" {
		return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "dataset.type is required")
	}
	if err := c.Schema.Validate(); err != nil {
		return err
	}
	if len(c.Schema.Columns()) == 0 {
		return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "schema declares no columns")
	}
	if c.Loader.BatchSize < 0 || c.Loader.Prefetch < 0 || c.Loader.Workers < 0 {
		return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "loader sizes must be >= 0")
	}
	for i, tc := range c.Transforms {
		if tc.Type == "" {
			return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "transforms[%d].type is required", i)
		}
	}
	if c.Serving != nil {
		if err := service.ValidateConfig(c.Serving); err != nil {
			return err
		}
	}
	if c.Store != nil && c.Store.Type == "" {
		return core.Errorf(core.ModuleConfig, core.ErrorCodeInvalidInput, "store.type is required")
	}
	return nil
}
