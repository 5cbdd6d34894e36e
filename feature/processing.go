package feature

import (
	"math"
	"sort"
	"sync"

	"github.com/miguelusque/NVTabular/core"
)

// FeatureStatistics 特征统计信息
type FeatureStatistics struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
}

// ComputeStatistics 计算特征统计信息，NaN 被忽略
func ComputeStatistics(values []float64) *FeatureStatistics {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return &FeatureStatistics{}
	}
	sort.Float64s(sorted)

	stats := &FeatureStatistics{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	stats.Mean = sum / float64(len(sorted))

	variance := 0.0
	for _, v := range sorted {
		variance += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(variance / float64(len(sorted)))

	stats.Median = computePercentile(sorted, 0.5)
	stats.P25 = computePercentile(sorted, 0.25)
	stats.P75 = computePercentile(sorted, 0.75)
	stats.P95 = computePercentile(sorted, 0.95)
	stats.P99 = computePercentile(sorted, 0.99)

	return stats
}

// computePercentile 计算分位数（线性插值）
func computePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// ZScoreNormalizer Z-score 标准化（Standardization）
// 公式: z = (x - μ) / σ
// 特点: 均值变为 0，标准差变为 1；σ 为 0 时只做中心化
type ZScoreNormalizer struct {
	Mean map[string]float64 // 特征均值
	Std  map[string]float64 // 特征标准差
}

// NewZScoreNormalizer 创建 Z-score 标准化器
func NewZScoreNormalizer(mean, std map[string]float64) *ZScoreNormalizer {
	return &ZScoreNormalizer{
		Mean: mean,
		Std:  std,
	}
}

// NormalizeValueWithKey 标准化单个值（指定特征名）
func (n *ZScoreNormalizer) NormalizeValueWithKey(key string, value float64) float64 {
	mean := n.Mean[key]
	std := n.Std[key]
	if std > 0 {
		return (value - mean) / std
	}
	return value - mean
}

// numericColumn 读取数值列（Floats 或 Ints），返回拷贝
func numericColumn(op string, cols *core.Columns, name string) ([]float64, error) {
	kind, ok := cols.Kind(name)
	if !ok {
		return nil, missingColumn(name)
	}
	switch kind {
	case core.KindFloat:
		return append([]float64(nil), cols.Floats[name]...), nil
	case core.KindInt:
		in := cols.Ints[name]
		out := make([]float64, len(in))
		for i, v := range in {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, wrongKind(op, name, kind)
	}
}

// statsCollector 按列累积数值，Finalize 时计算统计量
type statsCollector struct {
	columns []string
	mu      sync.RWMutex
	values  map[string][]float64
	stats   map[string]*FeatureStatistics
}

func newStatsCollector(columns []string) *statsCollector {
	return &statsCollector{
		columns: append([]string(nil), columns...),
		values:  make(map[string][]float64),
		stats:   make(map[string]*FeatureStatistics),
	}
}

func (s *statsCollector) partial(op string, cols *core.Columns) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range s.columns {
		v, err := numericColumn(op, cols, name)
		if err != nil {
			return err
		}
		s.values[name] = append(s.values[name], v...)
	}
	return nil
}

func (s *statsCollector) finalize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range s.columns {
		s.stats[name] = ComputeStatistics(s.values[name])
	}
	s.values = make(map[string][]float64)
}

// Stats 返回某列的统计量
func (s *statsCollector) Stats(column string) (*FeatureStatistics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[column]
	return st, ok
}

// SetStats 直接设置某列统计量，用于从存储恢复
func (s *statsCollector) SetStats(column string, stats *FeatureStatistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[column] = stats
}

// Columns 返回处理的列名
func (s *statsCollector) Columns() []string {
	return s.columns
}

// Normalize 对连续列做 z-score 标准化，输出 Floats；NaN 保持 NaN
type Normalize struct {
	*statsCollector
}

// NewNormalize 创建 Normalize
func NewNormalize(columns ...string) *Normalize {
	return &Normalize{statsCollector: newStatsCollector(columns)}
}

// Partial 累积数值
func (n *Normalize) Partial(cols *core.Columns) error {
	return n.partial("normalize", cols)
}

// Finalize 计算均值与标准差
func (n *Normalize) Finalize() error {
	n.finalize()
	return nil
}

// Fit 用一批数据拟合
func (n *Normalize) Fit(cols *core.Columns) error {
	if err := n.Partial(cols); err != nil {
		return err
	}
	return n.Finalize()
}

// Normalizer 以 ZScoreNormalizer 形式导出拟合结果
func (n *Normalize) Normalizer() *ZScoreNormalizer {
	n.mu.RLock()
	defer n.mu.RUnlock()
	mean := make(map[string]float64, len(n.stats))
	std := make(map[string]float64, len(n.stats))
	for k, st := range n.stats {
		mean[k] = st.Mean
		std[k] = st.Std
	}
	return NewZScoreNormalizer(mean, std)
}

// Transform 标准化各列
func (n *Normalize) Transform(cols *core.Columns) (*core.Columns, error) {
	z := n.Normalizer()
	out := cols.Clone()
	for _, name := range n.columns {
		if _, ok := z.Mean[name]; !ok {
			return nil, ErrNotFitted
		}
		v, err := numericColumn("normalize", cols, name)
		if err != nil {
			return nil, err
		}
		for i := range v {
			v[i] = z.NormalizeValueWithKey(name, v[i])
		}
		out.SetFloats(name, v)
	}
	return out, nil
}

// 缺失值填充策略
const (
	FillConstant = "constant"
	FillMean     = "mean"
	FillMedian   = "median"
)

// FillMissing 把连续列中的 NaN 替换为常量、均值或中位数
type FillMissing struct {
	*statsCollector
	// Strategy 处理策略：constant, mean, median
	Strategy string
	// DefaultValue constant 策略使用的值，也用于没有任何有效值的列
	DefaultValue float64
}

// NewFillMissing 创建缺失值填充器
func NewFillMissing(strategy string, defaultValue float64, columns ...string) (*FillMissing, error) {
	switch strategy {
	case "":
		strategy = FillConstant
	case FillConstant, FillMean, FillMedian:
	default:
		return nil, core.Errorf(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: unknown fill strategy %q", strategy)
	}
	return &FillMissing{
		statsCollector: newStatsCollector(columns),
		Strategy:       strategy,
		DefaultValue:   defaultValue,
	}, nil
}

// Partial 累积数值（constant 策略不需要）
func (f *FillMissing) Partial(cols *core.Columns) error {
	if f.Strategy == FillConstant {
		return nil
	}
	return f.partial("fill", cols)
}

// Finalize 计算填充值
func (f *FillMissing) Finalize() error {
	if f.Strategy != FillConstant {
		f.finalize()
	}
	return nil
}

func (f *FillMissing) fillValue(column string) (float64, error) {
	if f.Strategy == FillConstant {
		return f.DefaultValue, nil
	}
	st, ok := f.Stats(column)
	if !ok {
		return 0, ErrNotFitted
	}
	if st.Count == 0 {
		return f.DefaultValue, nil
	}
	if f.Strategy == FillMean {
		return st.Mean, nil
	}
	return st.Median, nil
}

// Transform 填充 NaN
func (f *FillMissing) Transform(cols *core.Columns) (*core.Columns, error) {
	out := cols.Clone()
	for _, name := range f.columns {
		fill, err := f.fillValue(name)
		if err != nil {
			return nil, err
		}
		v, err := numericColumn("fill", cols, name)
		if err != nil {
			return nil, err
		}
		for i := range v {
			if math.IsNaN(v[i]) {
				v[i] = fill
			}
		}
		out.SetFloats(name, v)
	}
	return out, nil
}

var (
	_ Fitter = (*Normalize)(nil)
	_ Fitter = (*FillMissing)(nil)
)
