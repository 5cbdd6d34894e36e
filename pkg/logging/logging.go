// Package logging 提供基于 zerolog 的全局结构化日志。
//
// 使用方式：
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("source", "parquet").Int("rows", n).Msg("dataset opened")
//	log := logging.Component("loader")
//	log.Debug().Int("batch", i).Msg("batch ready")
//
// 编解码包（ragged / batch）不打日志；只有 loader、service 等协作方使用本包。
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置
type Config struct {
	// Level 最低级别：trace, debug, info, warn, error, disabled（默认 info）
	Level string `yaml:"level" json:"level"`

	// Format 输出格式：json 或 console（默认 json）
	Format string `yaml:"format" json:"format"`

	// Caller 是否输出调用位置
	Caller bool `yaml:"caller" json:"caller"`

	// Output 输出目标（默认 os.Stderr）
	Output io.Writer `yaml:"-" json:"-"`
}

var (
	logger zerolog.Logger
	mu     sync.RWMutex
)

func init() {
	initLogger(Config{})
}

// Init 按配置重建全局 logger，可重复调用
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	initLogger(cfg)
}

func initLogger(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(output).Level(ParseLevel(cfg.Level)).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	logger = ctx.Logger()
}

// ParseLevel 将字符串级别转为 zerolog.Level，未知值按 info 处理
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger 返回全局 logger 的副本
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger 替换全局 logger（测试用）
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Component 返回带 component 字段的子 logger
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger.With().Str("component", name).Logger()
}

// Debug 以 debug 级别开始一条日志
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info 以 info 级别开始一条日志
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn 以 warn 级别开始一条日志
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error 以 error 级别开始一条日志
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}
