package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ContextKey is the type for context keys used by the logger
type ContextKey string

const (
	// LoggerKey is the context key for the logger instance
	LoggerKey ContextKey = "logger"
)

// Output formats accepted by NewFromConfig.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New creates a console logger on stderr so that reports written to stdout
// stay machine-readable.
func New() zerolog.Logger {
	return NewWithWriter(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// NewFromConfig builds the CLI logger. format is FormatConsole or FormatJSON;
// JSON lines go to stderr unchanged. Unknown or empty levels fall back to
// info.
func NewFromConfig(level, format string) zerolog.Logger {
	var log zerolog.Logger
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		log = NewWithWriter(os.Stderr)
	} else {
		log = New()
	}
	return log.Level(ParseLevel(level))
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewWithWriter creates a new structured logger with a custom writer
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

// Nop returns a disabled logger.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithContext adds the logger to the context
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from the context or returns a default logger
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return New()
}

// WithRun tags the context logger with run_id and stores it back, so every
// message of one batch run can be correlated.
func WithRun(ctx context.Context, runID string) (context.Context, zerolog.Logger) {
	log := FromContext(ctx).With().Str("run_id", runID).Logger()
	return WithContext(ctx, log), log
}
