// Package logging provides structured logging for Weave on top of log/slog.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// LogLevel represents different log levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a log level, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger interface for structured logging
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...interface{})
	Info(ctx context.Context, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
	Error(ctx context.Context, err error, msg string, fields ...interface{})

	With(fields ...interface{}) Logger
	WithComponent(component string) Logger
}

// WeaveLogger implements structured logging for Weave
type WeaveLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	fields    map[string]interface{}
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stdout,
	}
}

// NewLogger creates a new structured logger
func NewLogger(config *LoggerConfig) *WeaveLogger {
	if config == nil {
		config = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     slogLevel(config.Level),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(config.Output, opts)
	} else {
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &WeaveLogger{
		logger:    slog.New(handler),
		level:     config.Level,
		component: config.Component,
		fields:    make(map[string]interface{}),
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message
func (l *WeaveLogger) Debug(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelDebug {
		return
	}
	l.log(ctx, slog.LevelDebug, nil, msg, fields...)
}

// Info logs an info message
func (l *WeaveLogger) Info(ctx context.Context, msg string, fields ...interface{}) {
	if l.level > LevelInfo {
		return
	}
	l.log(ctx, slog.LevelInfo, nil, msg, fields...)
}

// Warn logs a warning message
func (l *WeaveLogger) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	if l.level > LevelWarn {
		return
	}
	l.log(ctx, slog.LevelWarn, err, msg, fields...)
}

// Error logs an error message
func (l *WeaveLogger) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	l.log(ctx, slog.LevelError, err, msg, fields...)
}

// With creates a new logger with additional fields
func (l *WeaveLogger) With(fields ...interface{}) Logger {
	newFields := make(map[string]interface{})
	for k, v := range l.fields {
		newFields[k] = v
	}

	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			newFields[key] = fields[i+1]
		}
	}

	return &WeaveLogger{
		logger:    l.logger,
		level:     l.level,
		component: l.component,
		fields:    newFields,
	}
}

// WithComponent creates a new logger with component context
func (l *WeaveLogger) WithComponent(component string) Logger {
	return &WeaveLogger{
		logger:    l.logger,
		level:     l.level,
		component: component,
		fields:    l.fields,
	}
}

// log is the internal logging method
func (l *WeaveLogger) log(ctx context.Context, level slog.Level, err error, msg string, fields ...interface{}) {
	attrs := make([]slog.Attr, 0, len(l.fields)+len(fields)/2+2)

	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	for k, v := range l.fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			attrs = append(attrs, slog.Any(key, fields[i+1]))
		}
	}

	record := slog.NewRecord(time.Now(), level, msg, 0)
	record.AddAttrs(attrs...)

	_ = l.logger.Handler().Handle(ctx, record)
}

// Entry is one captured log call, used by MemoryLogger.
type Entry struct {
	Level     LogLevel
	Message   string
	Err       error
	Component string
	Fields    []interface{}
}

// MemoryLogger captures log calls in memory. It backs tests that assert the
// engine's non-fatal skips are observable to a logger collaborator.
type MemoryLogger struct {
	mu        sync.Mutex
	entries   []Entry
	component string
	fields    []interface{}
}

// NewMemoryLogger creates an empty capturing logger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (m *MemoryLogger) record(level LogLevel, err error, msg string, fields ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	combined := make([]interface{}, 0, len(m.fields)+len(fields))
	combined = append(combined, m.fields...)
	combined = append(combined, fields...)
	m.entries = append(m.entries, Entry{
		Level:     level,
		Message:   msg,
		Err:       err,
		Component: m.component,
		Fields:    combined,
	})
}

func (m *MemoryLogger) Debug(_ context.Context, msg string, fields ...interface{}) {
	m.record(LevelDebug, nil, msg, fields...)
}

func (m *MemoryLogger) Info(_ context.Context, msg string, fields ...interface{}) {
	m.record(LevelInfo, nil, msg, fields...)
}

func (m *MemoryLogger) Warn(_ context.Context, err error, msg string, fields ...interface{}) {
	m.record(LevelWarn, err, msg, fields...)
}

func (m *MemoryLogger) Error(_ context.Context, err error, msg string, fields ...interface{}) {
	m.record(LevelError, err, msg, fields...)
}

// With returns the same logger with extra persistent fields.
func (m *MemoryLogger) With(fields ...interface{}) Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = append(m.fields, fields...)
	return m
}

// WithComponent returns the same logger tagged with a component name.
func (m *MemoryLogger) WithComponent(component string) Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.component = component
	return m
}

// Entries returns a copy of all captured entries.
func (m *MemoryLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// MessagesAt returns captured messages at a given level.
func (m *MemoryLogger) MessagesAt(level LogLevel) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var msgs []string
	for _, e := range m.entries {
		if e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}
