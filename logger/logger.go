package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ad_insight_agent/config"
)

// Logger 全局日志记录器，未初始化时使用 slog 默认实例
var Logger = slog.Default()

// Init 使用日志配置初始化 slog
func Init(cfg config.LogConfig) error {
	writer, err := openWriter(cfg.Output, cfg.FilePath)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
	return nil
}

// ParseLevel 将配置中的级别字符串转换为 slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openWriter 根据 output 选择 stdout / file / both
func openWriter(output, filePath string) (io.Writer, error) {
	output = strings.ToLower(output)
	if output != "file" && output != "both" {
		return os.Stdout, nil
	}

	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	if output == "both" {
		return io.MultiWriter(os.Stdout, file), nil
	}
	return file, nil
}

// With 返回携带固定字段的子 logger，用于单次流水线运行
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

// Debug 记录调试级别的日志
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info 记录信息级别的日志
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn 记录警告级别的日志
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error 记录错误级别的日志
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}
