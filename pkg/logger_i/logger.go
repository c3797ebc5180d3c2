package logger_i

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/akolanti/StudyRAG/internal/config"
)

type Logger struct {
	inner *slog.Logger
}

// Options is the user facing part of logging. Level is any slog level name
// ("debug", "info", "warn", "error"); Format is "text" or "json". Empty
// fields fall back to the build defaults.
type Options struct {
	Level  string
	Format string
}

func Init() {
	InitWithWriter(os.Stdout)
}

// InitWithWriter installs the default handler on w; the ingest CLI and the
// mcp mode point it at stderr so that stdout stays machine readable.
func InitWithWriter(w io.Writer) {
	_ = Configure(w, Options{})
}

// Configure replaces the default handler. Loggers created before the call
// keep the handler they were built with.
func Configure(w io.Writer, opts Options) error {
	level := slog.LevelDebug
	if config.IS_PROD {
		level = config.LOG_LEVEL_PROD
	}
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	format := strings.ToLower(opts.Format)
	if format == "" {
		format = "text"
		if config.IS_PROD {
			format = "json"
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	case "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	default:
		return fmt.Errorf("log format %q: want text or json", opts.Format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	l.inner.Log(context.Background(), level, msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}

// WithTrace attaches the trace id carried by ctx, if any.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	if trace, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok && trace != "" {
		return l.With(config.TRACE_ID_KEY, trace)
	}
	return l
}
