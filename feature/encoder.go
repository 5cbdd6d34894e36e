package feature

import (
	"hash/fnv"
	"strconv"
)

// LabelEncoder Label 编码（标签编码）
// 将类别值映射为连续整数：id 0 保留给空值与词表外的值，词表内的值从 1 开始。
type LabelEncoder struct {
	values []string         // values[i] 的 id 为 i+1
	index  map[string]int64 // 值 -> id
}

// NewLabelEncoder 按给定顺序创建 Label 编码器，重复值与空值被忽略
func NewLabelEncoder(values []string) *LabelEncoder {
	e := &LabelEncoder{
		values: make([]string, 0, len(values)),
		index:  make(map[string]int64, len(values)),
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := e.index[v]; ok {
			continue
		}
		e.values = append(e.values, v)
		e.index[v] = int64(len(e.values))
	}
	return e
}

// Encode 返回值对应的 id；不在词表中时返回 0, false
func (e *LabelEncoder) Encode(value string) (int64, bool) {
	id, ok := e.index[value]
	return id, ok
}

// Decode 返回 id 对应的值
func (e *LabelEncoder) Decode(id int64) (string, bool) {
	if id < 1 || id > int64(len(e.values)) {
		return "", false
	}
	return e.values[id-1], true
}

// Values 按 id 顺序返回词表（拷贝）
func (e *LabelEncoder) Values() []string {
	return append([]string(nil), e.values...)
}

// Size 返回词表大小（不含保留 id 0）
func (e *LabelEncoder) Size() int {
	return len(e.values)
}

// HashEncoder Hash 编码（哈希编码）
// 使用 fnv32a 将类别值映射到 [0, NumBuckets)。
type HashEncoder struct {
	NumBuckets int // 哈希桶数量
}

// NewHashEncoder 创建 Hash 编码器
func NewHashEncoder(numBuckets int) *HashEncoder {
	return &HashEncoder{NumBuckets: numBuckets}
}

// Bucket 返回值所在的桶；NumBuckets <= 0 时恒为 0
func (e *HashEncoder) Bucket(value string) int64 {
	if e == nil || e.NumBuckets <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	return int64(h.Sum32() % uint32(e.NumBuckets))
}

// intKey 整数类别值按十进制字符串进入词表
func intKey(v int64) string {
	return strconv.FormatInt(v, 10)
}
