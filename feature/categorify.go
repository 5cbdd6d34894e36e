package feature

import (
	"sort"
	"sync"

	"github.com/miguelusque/NVTabular/core"
)

// ErrNotFitted 表示算子在拟合前被使用
var ErrNotFitted = core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: op used before fit")

// Categorify 把类别列（字符串、整数或它们的列表）编码为连续整数 id。
//
// id 分配规则：
//   - 0：空值、词表外的值
//   - 1..N：词表内的值，按频次降序、值升序
//   - N+1..N+NumBuckets：开启哈希时，词表外的值按 fnv32a 落入这些桶
//
// 单值列输出 Ints，列表列输出 IntLists，可以直接交给 batch.Assembler。
type Categorify struct {
	columns       []string
	freqThreshold int
	numBuckets    int

	mu       sync.RWMutex
	counts   map[string]map[string]int
	encoders map[string]*LabelEncoder
	hash     *HashEncoder
}

// CategorifyOption 配置 Categorify
type CategorifyOption func(*Categorify)

// WithFreqThreshold 频次低于 n 的值不进入词表
func WithFreqThreshold(n int) CategorifyOption {
	return func(c *Categorify) {
		c.freqThreshold = n
	}
}

// WithNumBuckets 词表外的值哈希到 n 个额外 id
func WithNumBuckets(n int) CategorifyOption {
	return func(c *Categorify) {
		if n > 0 {
			c.numBuckets = n
		}
	}
}

// NewCategorify 创建 Categorify
func NewCategorify(columns []string, opts ...CategorifyOption) *Categorify {
	c := &Categorify{
		columns:  append([]string(nil), columns...),
		counts:   make(map[string]map[string]int),
		encoders: make(map[string]*LabelEncoder),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.numBuckets > 0 {
		c.hash = NewHashEncoder(c.numBuckets)
	}
	return c
}

// Columns 返回处理的列名
func (c *Categorify) Columns() []string {
	return c.columns
}

// Partial 累积各列的值频次
func (c *Categorify) Partial(cols *core.Columns) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range c.columns {
		counts := c.counts[name]
		if counts == nil {
			counts = make(map[string]int)
			c.counts[name] = counts
		}
		kind, ok := cols.Kind(name)
		if !ok {
			return missingColumn(name)
		}
		switch kind {
		case core.KindString:
			for _, v := range cols.Strings[name] {
				countValue(counts, v)
			}
		case core.KindStringList:
			for _, row := range cols.StringLists[name] {
				for _, v := range row {
					countValue(counts, v)
				}
			}
		case core.KindInt:
			for _, v := range cols.Ints[name] {
				countValue(counts, intKey(v))
			}
		case core.KindIntList:
			for _, row := range cols.IntLists[name] {
				for _, v := range row {
					countValue(counts, intKey(v))
				}
			}
		default:
			return wrongKind("categorify", name, kind)
		}
	}
	return nil
}

func countValue(counts map[string]int, v string) {
	if v != "" {
		counts[v]++
	}
}

// Finalize 根据累积频次生成词表并清空计数
func (c *Categorify) Finalize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, name := range c.columns {
		c.encoders[name] = NewLabelEncoder(rankValues(c.counts[name], c.freqThreshold))
	}
	c.counts = make(map[string]map[string]int)
	return nil
}

// rankValues 过滤低频值，按频次降序、值升序排列
func rankValues(counts map[string]int, threshold int) []string {
	values := make([]string, 0, len(counts))
	for v, n := range counts {
		if n >= threshold {
			values = append(values, v)
		}
	}
	sort.Slice(values, func(i, j int) bool {
		ci, cj := counts[values[i]], counts[values[j]]
		if ci != cj {
			return ci > cj
		}
		return values[i] < values[j]
	})
	return values
}

// Fit 用一批数据拟合
func (c *Categorify) Fit(cols *core.Columns) error {
	if err := c.Partial(cols); err != nil {
		return err
	}
	return c.Finalize()
}

// SetVocabulary 直接设置某列的词表（按 id 顺序），用于从存储恢复
func (c *Categorify) SetVocabulary(column string, values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoders[column] = NewLabelEncoder(values)
}

// Vocabulary 返回某列按 id 顺序的词表
func (c *Categorify) Vocabulary(column string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.encoders[column]
	if !ok {
		return nil, false
	}
	return e.Values(), true
}

// Cardinality 返回某列 id 空间大小（含保留 id 0 与哈希桶），未拟合时返回 0
func (c *Categorify) Cardinality(column string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.encoders[column]
	if !ok {
		return 0
	}
	return 1 + e.Size() + c.numBuckets
}

// Encode 编码单个值
func (c *Categorify) Encode(column, value string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.encoders[column]
	if !ok {
		return 0, ErrNotFitted
	}
	return c.encode(e, value), nil
}

func (c *Categorify) encode(e *LabelEncoder, value string) int64 {
	if value == "" {
		return 0
	}
	if id, ok := e.Encode(value); ok {
		return id
	}
	if c.hash != nil {
		return int64(e.Size()) + 1 + c.hash.Bucket(value)
	}
	return 0
}

// Transform 把类别列替换为 id 列
func (c *Categorify) Transform(cols *core.Columns) (*core.Columns, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := cols.Clone()
	for _, name := range c.columns {
		e, ok := c.encoders[name]
		if !ok {
			return nil, ErrNotFitted
		}
		kind, ok := cols.Kind(name)
		if !ok {
			return nil, missingColumn(name)
		}
		switch kind {
		case core.KindString:
			in := cols.Strings[name]
			ids := make([]int64, len(in))
			for i, v := range in {
				ids[i] = c.encode(e, v)
			}
			out.SetInts(name, ids)
		case core.KindInt:
			in := cols.Ints[name]
			ids := make([]int64, len(in))
			for i, v := range in {
				ids[i] = c.encode(e, intKey(v))
			}
			out.SetInts(name, ids)
		case core.KindStringList:
			in := cols.StringLists[name]
			rows := make([][]int64, len(in))
			for i, row := range in {
				ids := make([]int64, len(row))
				for j, v := range row {
					ids[j] = c.encode(e, v)
				}
				rows[i] = ids
			}
			out.SetIntLists(name, rows)
		case core.KindIntList:
			in := cols.IntLists[name]
			rows := make([][]int64, len(in))
			for i, row := range in {
				ids := make([]int64, len(row))
				for j, v := range row {
					ids[j] = c.encode(e, intKey(v))
				}
				rows[i] = ids
			}
			out.SetIntLists(name, rows)
		default:
			return nil, wrongKind("categorify", name, kind)
		}
	}
	return out, nil
}

var _ Fitter = (*Categorify)(nil)
