package logger

import (
	"fmt"
	"log/slog"
	"os"
)

// Logger — общий интерфейс логирования приложения.
// Передаётся через конструкторы, чтобы слои не зависели от конкретной реализации.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

type slogLogger struct {
	log *slog.Logger
}

// NewSlogLogger создает логгер поверх log/slog с JSON-выводом в stdout.
func NewSlogLogger() Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	})

	return &slogLogger{log: slog.New(handler)}
}

func (l *slogLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Errorf(err error, format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...), slog.Any("error", err))
}

// logLevel читает уровень логирования из LOG_LEVEL (debug|info|warn|error).
func logLevel() slog.Level {
	switch os.Getenv("LOG_LEVEL") {
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
