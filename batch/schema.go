package batch

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/miguelusque/NVTabular/core"
)

// Schema 声明一个 batch 由哪些列组成（支持 YAML/JSON）。
//
//	name: movielens
//	categorical: [userId, movieId]
//	ragged: [genres]
//	continuous: []
//	labels: [rating]
//
// 列的出现完全由 Schema 驱动；每个 batch 至多一个标签列
// （推理 batch 可以没有标签）。
type Schema struct {
	Name        string   `yaml:"name" json:"name"`
	Categorical []string `yaml:"categorical" json:"categorical"` // 定长（单值）类别列
	Ragged      []string `yaml:"ragged" json:"ragged"`           // 变长（multi-hot）类别列
	Continuous  []string `yaml:"continuous" json:"continuous"`   // 连续特征列
	Labels      []string `yaml:"labels" json:"labels"`           // 标签列（0 或 1 个）
}

// Label 返回标签列名，没有标签时返回 ""
func (s *Schema) Label() string {
	if len(s.Labels) == 0 {
		return ""
	}
	return s.Labels[0]
}

// Columns 按 categorical → ragged → continuous → label 的顺序返回所有声明列
func (s *Schema) Columns() []string {
	out := make([]string, 0, len(s.Categorical)+len(s.Ragged)+len(s.Continuous)+len(s.Labels))
	out = append(out, s.Categorical...)
	out = append(out, s.Ragged...)
	out = append(out, s.Continuous...)
	out = append(out, s.Labels...)
	return out
}

// Validate 校验 Schema 本身：
//   - 至多一个标签列（SCHEMA_MISMATCH）
//   - 列名非空且不重复（INVALID_INPUT）
func (s *Schema) Validate() error {
	if len(s.Labels) > 1 {
		return core.Errorf(core.ModuleBatch, core.ErrorCodeSchemaMismatch,
			"schema %q declares %d label columns %v, at most one is permitted", s.Name, len(s.Labels), s.Labels)
	}
	seen := make(map[string]struct{})
	for _, name := range s.Columns() {
		if name == "" {
			return core.Errorf(core.ModuleBatch, core.ErrorCodeInvalidInput,
				"schema %q has an empty column name", s.Name)
		}
		if _, ok := seen[name]; ok {
			return core.Errorf(core.ModuleBatch, core.ErrorCodeInvalidInput,
				"schema %q declares column %q more than once", s.Name, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// LoadSchemaYAML 从 YAML 文件加载 Schema。
func LoadSchemaYAML(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseSchemaYAML(data)
}

// ParseSchemaYAML 解析 YAML 格式的 Schema 并校验。
func ParseSchemaYAML(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSchemaJSON 从 JSON 文件加载 Schema。
func LoadSchemaJSON(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
