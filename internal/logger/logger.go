package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel 解析日志级别字符串，空字符串视为 info
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return l, nil
}

// New 创建一个新的日志记录器
//
// debug 为 true 时强制 debug 级别，否则使用 level。
func New(debug bool, level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if debug {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志系统失败: %w", err)
	}
	return logger, nil
}

// NewLogger 创建一个新的日志记录器，失败时 panic
func NewLogger(debug bool) *zap.Logger {
	logger, err := New(debug, "info")
	if err != nil {
		panic(err.Error())
	}
	return logger
}

// OrNop 在 logger 为 nil 时返回空日志记录器
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
