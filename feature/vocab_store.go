package feature

import (
	"context"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/miguelusque/NVTabular/core"
)

// VocabStore 通过 core.Store 持久化拟合结果，使训练与在线服务共用同一份词表。
//
// 存储布局：
//   - 词表：Hash，key = prefix + "vocab:" + 列名，field = 类别值，value = 十进制 id
//   - 统计量：String，key = prefix + "stats:" + 列名，value = FeatureStatistics 的 JSON
type VocabStore struct {
	store  core.Store
	prefix string
}

// NewVocabStore 创建 VocabStore，prefix 为空时使用 "nvt:"
func NewVocabStore(store core.Store, prefix string) *VocabStore {
	if prefix == "" {
		prefix = "nvt:"
	}
	return &VocabStore{store: store, prefix: prefix}
}

func (s *VocabStore) vocabKey(column string) string {
	return s.prefix + "vocab:" + column
}

func (s *VocabStore) statsKey(column string) string {
	return s.prefix + "stats:" + column
}

// SaveCategorify 保存所有列的词表；已存在的词表先被删除
func (s *VocabStore) SaveCategorify(ctx context.Context, c *Categorify) error {
	for _, column := range c.Columns() {
		values, ok := c.Vocabulary(column)
		if !ok {
			return ErrNotFitted
		}
		fields := make(map[string][]byte, len(values))
		for i, v := range values {
			fields[v] = []byte(strconv.Itoa(i + 1))
		}
		key := s.vocabKey(column)
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
		if err := s.store.HSetAll(ctx, key, fields); err != nil {
			return err
		}
	}
	return nil
}

// LoadCategorify 从存储恢复词表；某列不存在时返回 NOT_FOUND
func (s *VocabStore) LoadCategorify(ctx context.Context, c *Categorify) error {
	for _, column := range c.Columns() {
		fields, err := s.store.HGetAll(ctx, s.vocabKey(column))
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return core.Errorf(core.ModuleFeature, core.ErrorCodeNotFound, "feature: no vocabulary stored for column %q", column)
		}
		type pair struct {
			value string
			id    int
		}
		pairs := make([]pair, 0, len(fields))
		for v, raw := range fields {
			id, err := strconv.Atoi(string(raw))
			if err != nil {
				return core.Errorf(core.ModuleFeature, core.ErrorCodeInternalError, "feature: bad id %q for %q in column %q", raw, v, column)
			}
			pairs = append(pairs, pair{value: v, id: id})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })
		values := make([]string, len(pairs))
		for i, p := range pairs {
			values[i] = p.value
		}
		c.SetVocabulary(column, values)
	}
	return nil
}

// statsOwner 是 Normalize 与 FillMissing 的共同能力
type statsOwner interface {
	Columns() []string
	Stats(column string) (*FeatureStatistics, bool)
	SetStats(column string, stats *FeatureStatistics)
}

// SaveStats 保存连续列统计量（Normalize / FillMissing）
func (s *VocabStore) SaveStats(ctx context.Context, op statsOwner) error {
	kvs := make(map[string][]byte, len(op.Columns()))
	for _, column := range op.Columns() {
		st, ok := op.Stats(column)
		if !ok {
			return ErrNotFitted
		}
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		kvs[s.statsKey(column)] = data
	}
	return s.store.BatchSet(ctx, kvs)
}

// LoadStats 恢复连续列统计量
func (s *VocabStore) LoadStats(ctx context.Context, op statsOwner) error {
	keys := make([]string, 0, len(op.Columns()))
	for _, column := range op.Columns() {
		keys = append(keys, s.statsKey(column))
	}
	values, err := s.store.BatchGet(ctx, keys)
	if err != nil {
		return err
	}
	for _, column := range op.Columns() {
		data, ok := values[s.statsKey(column)]
		if !ok {
			return core.Errorf(core.ModuleFeature, core.ErrorCodeNotFound, "feature: no statistics stored for column %q", column)
		}
		var st FeatureStatistics
		if err := json.Unmarshal(data, &st); err != nil {
			return core.Errorf(core.ModuleFeature, core.ErrorCodeInternalError, "feature: decode statistics for %q: %v", column, err)
		}
		op.SetStats(column, &st)
	}
	return nil
}
