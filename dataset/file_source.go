package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/miguelusque/NVTabular/core"
)

// 文件格式
const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// FileSource 通过嵌入式 DuckDB 读取 Parquet / CSV 文件（支持 glob，如 data/*.parquet）。
//
// 分页使用 LIMIT/OFFSET；DuckDB 默认保持文件内的行顺序，所以同一文件的分页结果稳定。
// 列类型取自 DuckDB 的列类型并在首次读取后固定，某一块整列为 NULL 时类型不变。
type FileSource struct {
	db       *sql.DB
	format   string
	path     string
	columns  []string
	relation string

	mu      sync.Mutex
	counted bool
	count   int
	kinds   map[string]core.ColumnKind
}

// NewFileSource 打开文件数据源；columns 为空时读取全部列
func NewFileSource(format, path string, columns ...string) (*FileSource, error) {
	var fn string
	switch strings.ToLower(format) {
	case FormatParquet:
		fn = "read_parquet"
	case FormatCSV:
		fn = "read_csv_auto"
	default:
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeNotSupported, "unsupported file format %q", format)
	}
	if path == "" {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "file source needs a path")
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeUnavailable, "open duckdb: %v", err)
	}
	// 内存库只能单连接共享
	db.SetMaxOpenConns(1)

	return &FileSource{
		db:       db,
		format:   strings.ToLower(format),
		path:     path,
		columns:  append([]string(nil), columns...),
		relation: fmt.Sprintf("%s(%s)", fn, quoteLiteral(path)),
	}, nil
}

func (s *FileSource) Name() string { return s.format }

// Path 返回文件路径
func (s *FileSource) Path() string { return s.path }

// NumRows 返回总行数；只缓存成功的结果，失败（如 ctx 取消）后可以重试
func (s *FileSource) NumRows(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.counted {
		defer s.mu.Unlock()
		return s.count, nil
	}
	s.mu.Unlock()

	var n int
	row := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+s.relation)
	if err := row.Scan(&n); err != nil {
		return 0, core.Errorf(core.ModuleDataset, core.ErrorCodeUnavailable, "count rows in %s: %v", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count, s.counted = n, true
	return n, nil
}

// Read 读取 [offset, offset+limit) 行
func (s *FileSource) Read(ctx context.Context, offset, limit int) (*core.Columns, error) {
	if offset < 0 || limit < 0 {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInvalidInput, "invalid range offset=%d limit=%d", offset, limit)
	}
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d OFFSET %d", s.projection(), s.relation, limit, offset)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeUnavailable, "read %s: %v", s.path, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInternalError, "column types of %s: %v", s.path, err)
	}
	kinds := s.columnKinds(types)
	builders := make([]*columnValues, len(names))
	for i, name := range names {
		builders[i] = &columnValues{name: name, fixed: kinds[name]}
	}

	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeInternalError, "scan %s: %v", s.path, err)
		}
		for i, v := range dest {
			builders[i].append(v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, core.Errorf(core.ModuleDataset, core.ErrorCodeUnavailable, "read %s: %v", s.path, err)
	}

	cols := core.NewColumns()
	for _, b := range builders {
		if err := b.setInto(cols); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// columnKinds 首次调用时按 DuckDB 列类型确定各列类型并缓存
func (s *FileSource) columnKinds(types []*sql.ColumnType) map[string]core.ColumnKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kinds != nil {
		return s.kinds
	}
	kinds := make(map[string]core.ColumnKind, len(types))
	for _, t := range types {
		if kind, ok := kindForDatabaseType(t.DatabaseTypeName()); ok {
			kinds[t.Name()] = kind
		}
	}
	s.kinds = kinds
	return kinds
}

func (s *FileSource) projection() string {
	if len(s.columns) == 0 {
		return "*"
	}
	quoted := make([]string, len(s.columns))
	for i, c := range s.columns {
		quoted[i] = quoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func (s *FileSource) Close() error {
	return s.db.Close()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

var _ core.Source = (*FileSource)(nil)
