package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"vrpdfd/pkg/config"
)

// Log глобальный логгер CLI. До Init пишет в никуда.
var Log = slog.New(slog.DiscardHandler)

// Config конфигурация логгера
type Config struct {
	Level      string
	Format     string // json, text
	Output     string // stdout, stderr, file
	FilePath   string
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// FromConfig переносит секцию log из конфигурации приложения
func FromConfig(c config.LogConfig) Config {
	return Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}

// InitWithConfig инициализирует глобальный логгер с полной конфигурацией.
// Возвращает writer, который нужно закрыть при завершении (для file).
func InitWithConfig(cfg Config) io.Closer {
	writer, closer := openWriter(cfg)
	Log = New(writer, cfg)
	return closer
}

// New строит логгер поверх произвольного writer
func New(w io.Writer, cfg Config) *slog.Logger {
	lvl := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel переводит строковый уровень, неизвестное значение = info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openWriter выбирает writer; stdout оставлен под JSON-результаты CLI,
// поэтому по умолчанию используется stderr
func openWriter(cfg Config) (io.Writer, io.Closer) {
	switch cfg.Output {
	case "stdout":
		return os.Stdout, nopCloser{}
	case "file":
		if cfg.FilePath == "" {
			cfg.FilePath = "logs/vrpdfd.log"
		}
		// Создаём директорию
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return os.Stderr, nopCloser{}
		}
		// Используем lumberjack для ротации
		lj := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		return lj, lj
	default:
		return os.Stderr, nopCloser{}
	}
}

// WithRunID добавляет идентификатор запуска
func WithRunID(runID string) *slog.Logger {
	return Log.With("run_id", runID)
}

// WithService добавляет имя сервиса
func WithService(service string) *slog.Logger {
	return Log.With("service", service)
}

// Warn логирует warning сообщение
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error логирует error сообщение
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
