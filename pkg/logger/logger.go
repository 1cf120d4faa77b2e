package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Logger is the process-wide logger. It is a no-op until Init is called,
// which keeps package tests quiet.
var Logger = zerolog.Nop()

// Options tunes the logger beyond the service name.
type Options struct {
	Development bool
	Level       string
	Output      io.Writer
}

// Init initializes the global logger
func Init(serviceName string, isDevelopment bool) {
	InitWithOptions(serviceName, Options{Development: isDevelopment})
}

// InitWithOptions initializes the global logger with explicit options
func InitWithOptions(serviceName string, opts Options) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	if opts.Development {
		// Pretty print for development
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
		}
	}

	Logger = zerolog.New(output).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	if opts.Level != "" {
		if lvl, err := zerolog.ParseLevel(opts.Level); err == nil {
			Logger = Logger.Level(lvl)
		}
	}

	log.Logger = Logger
}

// WithContext returns a logger with trace information from context
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Logger.With().Logger()

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		l = l.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &l
}

// Info logs at info level with context
func Info(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Info()
}

// Error logs at error level with context
func Error(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Error()
}

// Debug logs at debug level with context
func Debug(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Debug()
}

// Warn logs at warn level with context
func Warn(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Warn()
}

// Fatal logs at fatal level with context
func Fatal(ctx context.Context) *zerolog.Event {
	return WithContext(ctx).Fatal()
}

// SetLevel sets the global log level. Unknown levels fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
