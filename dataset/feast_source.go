package dataset

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/miguelusque/NVTabular/core"
)

// FeastClient 是 FeastSource 依赖的最小能力，*feastsdk.GrpcClient 满足该接口
type FeastClient interface {
	GetOnlineFeatures(ctx context.Context, req *feastsdk.OnlineFeaturesRequest) (*feastsdk.OnlineFeaturesResponse, error)
}

// FeastSource 从 Feast 在线特征服务读取一组固定实体的特征。
//
// 行 i 对应 entities[i]；输出列包括实体键与请求的特征，
// 特征列名去掉 feature table 前缀（"movie_stats:genres" -> "genres"）。
// 每列的类型在第一次见到非空值时确定，之后的分块即使整列为空也沿用该类型。
type FeastSource struct {
	client   FeastClient
	project  string
	features []string
	entities []map[string]any

	mu    sync.Mutex
	kinds map[string]core.ColumnKind
}

// NewFeastSource 用已有客户端创建 FeastSource
func NewFeastSource(client FeastClient, project string, features []string, entities []map[string]any) (*FeastSource, error) {
	if len(features) == 0 {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "feast source needs features")
	}
	if project == "" {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "feast source needs a project")
	}
	return &FeastSource{
		client:   client,
		project:  project,
		features: append([]string(nil), features...),
		entities: entities,
		kinds:    make(map[string]core.ColumnKind),
	}, nil
}

// FeastDialConfig Feast gRPC 连接参数
type FeastDialConfig struct {
	Host string
	// Port 默认 6565
	Port int
	// Token 非空时使用静态 Token 认证
	Token string
	// TLS 认证连接是否启用 TLS
	TLS bool
}

// DialFeast 连接 Feast gRPC 服务并创建 FeastSource
func DialFeast(dial FeastDialConfig, project string, features []string, entities []map[string]any) (*FeastSource, error) {
	if dial.Port == 0 {
		dial.Port = 6565
	}
	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if dial.Token != "" {
		client, err = feastsdk.NewSecureGrpcClient(dial.Host, dial.Port, feastsdk.SecurityConfig{
			EnableTLS:  dial.TLS,
			Credential: feastsdk.NewStaticCredential(dial.Token),
		})
	} else {
		client, err = feastsdk.NewGrpcClient(dial.Host, dial.Port)
	}
	if err != nil {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeUnavailable, "connect feast %s:%d: %v", dial.Host, dial.Port, err)
	}
	return NewFeastSource(client, project, features, entities)
}

func (s *FeastSource) Name() string { return "feast" }

func (s *FeastSource) NumRows(ctx context.Context) (int, error) {
	return len(s.entities), nil
}

// Read 请求 entities[offset : offset+limit] 的在线特征
func (s *FeastSource) Read(ctx context.Context, offset, limit int) (*core.Columns, error) {
	start, end, err := clampRange(offset, limit, len(s.entities))
	if err != nil {
		return nil, err
	}
	entities := s.entities[start:end]
	if len(entities) == 0 {
		return core.NewColumns(), nil
	}

	entityRows := make([]feastsdk.Row, len(entities))
	for i, e := range entities {
		row := make(feastsdk.Row, len(e))
		for k, v := range e {
			row[k] = toFeastValue(v)
		}
		entityRows[i] = row
	}

	resp, err := s.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: s.features,
		Entities: entityRows,
		Project:  s.project,
	})
	if err != nil {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeUnavailable, "feast get online features: %v", err)
	}
	rows := resp.Rows()
	if len(rows) != len(entities) {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeSchemaMismatch,
			"feast returned %d rows for %d entities", len(rows), len(entities))
	}

	// 实体键排在前面，顺序按第一个实体的 key 排序后确定
	refs := make([]string, 0, len(s.features)+len(entities[0]))
	for k := range entities[0] {
		refs = append(refs, k)
	}
	sort.Strings(refs)
	refs = append(refs, s.features...)

	cols := core.NewColumns()
	for _, ref := range refs {
		b := &columnValues{name: featureName(ref)}
		for _, row := range rows {
			b.append(fromFeastValue(row[ref]))
		}
		if err := s.fixKind(b); err != nil {
			return nil, err
		}
		if err := b.setInto(cols); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// fixKind 使用已记录的列类型；尚未记录时按本块的值推断，能确定时记录下来
func (s *FeastSource) fixKind(b *columnValues) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind, ok := s.kinds[b.name]; ok {
		b.fixed = kind
		return nil
	}
	kind, known, err := b.infer()
	if err != nil {
		return err
	}
	if known {
		s.kinds[b.name] = kind
		b.fixed = kind
	}
	return nil
}

// Close 关闭底层连接（若客户端支持）
func (s *FeastSource) Close() error {
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// featureName "table:feature" -> "feature"
func featureName(ref string) string {
	if i := strings.LastIndex(ref, ":"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func toFeastValue(v any) *types.Value {
	switch val := v.(type) {
	case string:
		return feastsdk.StrVal(val)
	case int:
		return feastsdk.Int64Val(int64(val))
	case int64:
		return feastsdk.Int64Val(val)
	case int32:
		return feastsdk.Int64Val(int64(val))
	case float64:
		return feastsdk.DoubleVal(val)
	case float32:
		return feastsdk.FloatVal(val)
	case bool:
		return feastsdk.BoolVal(val)
	case []byte:
		return feastsdk.BytesVal(val)
	default:
		return feastsdk.StrVal(fmt.Sprint(val))
	}
}

// fromFeastValue 把 Feast 值转成 columnValues 能识别的 Go 值；未设置的值为 nil
func fromFeastValue(v *types.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.GetVal().(type) {
	case *types.Value_Int64Val:
		return val.Int64Val
	case *types.Value_Int32Val:
		return int64(val.Int32Val)
	case *types.Value_DoubleVal:
		return val.DoubleVal
	case *types.Value_FloatVal:
		return float64(val.FloatVal)
	case *types.Value_BoolVal:
		return val.BoolVal
	case *types.Value_StringVal:
		return val.StringVal
	case *types.Value_BytesVal:
		return string(val.BytesVal)
	case *types.Value_Int64ListVal:
		return append([]int64{}, val.Int64ListVal.GetVal()...)
	case *types.Value_Int32ListVal:
		return append([]int32{}, val.Int32ListVal.GetVal()...)
	case *types.Value_StringListVal:
		return append([]string{}, val.StringListVal.GetVal()...)
	default:
		return nil
	}
}

var _ core.Source = (*FeastSource)(nil)
