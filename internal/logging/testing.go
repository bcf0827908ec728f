// pattern: Imperative Shell

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NopLogger returns a logger that discards all output.
// Use in tests or when logging is not configured.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// NopProvider hands out NopLogger for every scope.
type NopProvider struct{}

// For returns a discarding logger.
func (NopProvider) For(string) *ScopedLogger {
	return NopLogger()
}

// TestLogManager records every entry in memory for assertions.
type TestLogManager struct {
	baseZap *zap.Logger
	logs    *observer.ObservedLogs
	cache   *scopeCache
}

// NewTestLogManager creates a LoggerProvider that records at debug level.
func NewTestLogManager() *TestLogManager {
	core, logs := observer.New(zapcore.DebugLevel)
	return &TestLogManager{
		baseZap: zap.New(core),
		logs:    logs,
		cache:   newScopeCache(),
	}
}

// For returns a scoped logger for the given scope name.
// Named For() to match the production Manager API.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	return m.cache.get(scope, func() *ScopedLogger {
		return newScopedLogger(m.baseZap, zapcore.DebugLevel, scope)
	})
}

// Messages returns the recorded messages for scope, oldest first.
// An empty scope returns every message.
func (m *TestLogManager) Messages(scope string) []string {
	var out []string
	for _, entry := range m.logs.All() {
		if scope == "" || entry.LoggerName == scope {
			out = append(out, entry.Message)
		}
	}
	return out
}

// Entries exposes the raw observed entries.
func (m *TestLogManager) Entries() []observer.LoggedEntry {
	return m.logs.All()
}
