// pattern: Imperative Shell

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds configuration for the Manager.
type Config struct {
	FilePath     string    // Path to the JSON log file; empty disables file output
	MaxSizeMB    int       // Max size in MB before rotation
	MaxBackups   int       // Max number of old log files to keep
	MaxAgeDays   int       // Max days to keep old log files
	Level        string    // Minimum log level (debug, info, warn, error)
	Console      io.Writer // Optional human-readable mirror (usually os.Stderr)
	ConsoleLevel string    // Minimum level for the console mirror (default warn)
}

// LoggerProvider is an interface for obtaining scoped loggers.
// Both Manager and TestLogManager implement this interface.
type LoggerProvider interface {
	For(scope string) *ScopedLogger
}

// ScopedLogger is a named logger with slog-style key/value arguments.
// The zero value and a nil pointer both discard everything.
type ScopedLogger struct {
	slog  *slog.Logger
	scope string
}

// Info logs at INFO level.
func (l *ScopedLogger) Info(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Info(msg, args...)
	}
}

// Debug logs at DEBUG level.
func (l *ScopedLogger) Debug(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Debug(msg, args...)
	}
}

// Warn logs at WARN level.
func (l *ScopedLogger) Warn(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Warn(msg, args...)
	}
}

// Error logs at ERROR level.
func (l *ScopedLogger) Error(msg string, args ...any) {
	if l != nil && l.slog != nil {
		l.slog.Error(msg, args...)
	}
}

// With returns a logger that adds the key/value pairs to every entry.
func (l *ScopedLogger) With(args ...any) *ScopedLogger {
	if l == nil || l.slog == nil {
		return l
	}
	return &ScopedLogger{slog: l.slog.With(args...), scope: l.scope}
}

// Scope returns the logger's scope name.
func (l *ScopedLogger) Scope() string {
	if l == nil {
		return ""
	}
	return l.scope
}

// Manager hands out scoped loggers that share one zap core.
type Manager struct {
	baseZap    *zap.Logger
	fileWriter *lumberjack.Logger
	level      zapcore.Level
	cache      *scopeCache
}

// NewManager builds the zap core from cfg. With no FilePath and no Console
// the manager still works but writes nothing.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 7
	}

	level := ParseLevel(cfg.Level, zapcore.InfoLevel)
	encoderCfg := encoderConfig()

	var cores []zapcore.Core
	var fileWriter *lumberjack.Logger

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		fileWriter = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	if cfg.Console != nil {
		consoleLevel := ParseLevel(cfg.ConsoleLevel, zapcore.WarnLevel)
		consoleCfg := encoderCfg
		consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(zapcore.AddSync(cfg.Console)),
			consoleLevel,
		))
		if consoleLevel < level {
			level = consoleLevel
		}
	}

	core := zapcore.NewNopCore()
	if len(cores) > 0 {
		core = zapcore.NewTee(cores...)
	}

	return &Manager{
		baseZap:    zap.New(core),
		fileWriter: fileWriter,
		level:      level,
		cache:      newScopeCache(),
	}, nil
}

// For returns the cached logger for scope, creating it on first use.
// Scopes are dotted names such as "catalog" or "gitport.shell".
func (m *Manager) For(scope string) *ScopedLogger {
	return m.cache.get(scope, func() *ScopedLogger {
		return newScopedLogger(m.baseZap, m.level, scope)
	})
}

// Sync flushes buffered entries.
func (m *Manager) Sync() error {
	return m.baseZap.Sync()
}

// Close flushes and releases the log file.
func (m *Manager) Close() error {
	_ = m.Sync()
	if m.fileWriter == nil {
		return nil
	}
	return m.fileWriter.Close()
}

// ParseLevel parses a level name, returning def for empty or unknown names.
func ParseLevel(name string, def zapcore.Level) zapcore.Level {
	if name == "" {
		return def
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return def
	}
	return level
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.EpochTimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}

func newScopedLogger(base *zap.Logger, level zapcore.Level, scope string) *ScopedLogger {
	named := base.Named(scope)
	return &ScopedLogger{
		slog:  slog.New(&zapSlogHandler{zap: named, level: level}),
		scope: scope,
	}
}

// scopeCache memoizes loggers per scope.
type scopeCache struct {
	mu      sync.RWMutex
	loggers map[string]*ScopedLogger
}

func newScopeCache() *scopeCache {
	return &scopeCache{loggers: make(map[string]*ScopedLogger)}
}

func (c *scopeCache) get(scope string, build func() *ScopedLogger) *ScopedLogger {
	c.mu.RLock()
	if logger, ok := c.loggers[scope]; ok {
		c.mu.RUnlock()
		return logger
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if logger, ok := c.loggers[scope]; ok {
		return logger
	}
	logger := build()
	c.loggers[scope] = logger
	return logger
}

// zapSlogHandler adapts zap.Logger to slog.Handler interface.
type zapSlogHandler struct {
	zap   *zap.Logger
	level zapcore.Level
	attrs []slog.Attr
}

func (h *zapSlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return slogToZapLevel(level) >= h.level
}

func (h *zapSlogHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]zap.Field, 0, r.NumAttrs()+len(h.attrs))
	for _, attr := range h.attrs {
		fields = append(fields, zap.Any(attr.Key, attr.Value.Any()))
	}
	r.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, zap.Any(attr.Key, attr.Value.Any()))
		return true
	})

	if ce := h.zap.Check(slogToZapLevel(r.Level), r.Message); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

func (h *zapSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &zapSlogHandler{zap: h.zap, level: h.level, attrs: merged}
}

func (h *zapSlogHandler) WithGroup(name string) slog.Handler {
	return &zapSlogHandler{zap: h.zap.Named(name), level: h.level, attrs: h.attrs}
}

func slogToZapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
