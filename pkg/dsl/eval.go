package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/miguelusque/NVTabular/pkg/conv"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境：一行数据以 row 变量暴露
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("row", cel.DynType),
		cel.CrossTypeNumericComparisons(true),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Expr 是编译后的行表达式，使用 CEL (Common Expression Language) 实现。
// 编译一次后可在多个 goroutine 中并发求值。
//
// 表达式语法（CEL 标准语法），列通过 row.<name> 访问：
//   - 数值：row.rating >= 4.0 / row.price * 0.9
//   - 逻辑：row.rating >= 4.0 && row.genre == "Comedy"
//   - 列表：size(row.genres) / "Drama" in row.genres
//
// 数值列统一以 double 暴露，所以整数字面量也要写成 4.0 这种形式更稳妥。
type Expr struct {
	source string
	prg    cel.Program
}

// Compile 解析并编译表达式
func Compile(expr string) (*Expr, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Expr{source: expr, prg: prg}, nil
}

// String 返回表达式源码
func (e *Expr) String() string {
	return e.source
}

// Eval 对一行数据求值，返回 CEL 原始结果
func (e *Expr) Eval(row map[string]any) (any, error) {
	out, _, err := e.prg.Eval(map[string]any{"row": normalizeRow(row)})
	if err != nil {
		// 访问不存在的列时 CEL 返回 no such key
		return nil, fmt.Errorf("dsl: eval %q: %w", e.source, err)
	}
	return out.Value(), nil
}

// EvalBool 求值并要求布尔结果
func (e *Expr) EvalBool(row map[string]any) (bool, error) {
	v, err := e.Eval(row)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("dsl: %q must return bool, got %T", e.source, v)
	}
	return b, nil
}

// EvalFloat 求值并转成 float64；bool 结果映射为 1/0
func (e *Expr) EvalFloat(row map[string]any) (float64, error) {
	v, err := e.Eval(row)
	if err != nil {
		return 0, err
	}
	if b, ok := v.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	f, ok := conv.ToFloat64(v)
	if !ok {
		return 0, fmt.Errorf("dsl: %q must return a number or bool, got %T", e.source, v)
	}
	return f, nil
}

// normalizeRow 把数值标量统一成 float64，避免 int 与 double 混算时报错
func normalizeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32:
			f, _ := conv.ToFloat64(v)
			out[k] = f
		default:
			out[k] = v
		}
	}
	return out
}
