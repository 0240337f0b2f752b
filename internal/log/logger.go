package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger is Lectern's structured logger.  Output is JSON lines so a session can be replayed when reconciling player
// issues after the fact; the terminal itself is owned by the TUI and never written to.
type Logger struct {
	logger       *slog.Logger
	closer       io.Closer
	traceEnabled bool
}

// Config contains logging information used to set up the logging framework
type Config struct {
	// Log Level.  One of: trace, debug, info, warn, error
	Level string
	// Path to the file to log into.  Ignored when Writer is set.
	FilePath string
	// Writer overrides the log file, mostly for tests
	Writer io.Writer
}

// New creates a logger writing to the configured file, creating its directory when needed
func New(config Config) (*Logger, error) {
	w := config.Writer
	var closer io.Closer
	if w == nil {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0700); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, fmt.Errorf("unable to open log file: %w", err)
		}
		w, closer = file, file
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(config.Level),
	})

	return &Logger{
		logger:       slog.New(handler),
		closer:       closer,
		traceEnabled: strings.EqualFold(config.Level, "trace"),
	}, nil
}

// With returns a logger that adds the given attributes to every record, e.g. log.DefaultLogger().With("component", "mpv")
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		logger:       l.logger.With(args...),
		traceEnabled: l.traceEnabled,
	}
}

// Close the log file.  Loggers derived through With share the file and do not close it.
func (l *Logger) Close() {
	if l.closer == nil {
		return
	}
	if err := l.closer.Close(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error closing logger: %v\n", err)
	}
}

// Trace logs at debug level when trace logging is enabled
func (l *Logger) Trace(msg string, args ...any) {
	if l.traceEnabled {
		l.logger.Debug("TRACE: "+msg, args...)
	}
}

// Debug logs a message at debug level
func (l *Logger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

// Info logs a message at info level
func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

// Warn logs a message at warn level
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs a message at error level
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// parseLogLevel converts a configured level into the slog one.  Unknown levels default to info.
func parseLogLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
	case "trace", "debug":
		// trace is filtered by this package rather than slog
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
