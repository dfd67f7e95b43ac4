package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is the common structured-logging surface used across services. It is
// implemented by the stdout fallback logger and the OTLP-exporting logger.
type Logger interface {
	WithComponent(componentName string) *slog.Logger
	WithOperation(operationName string) *slog.Logger
	WithDomain(domain string) *slog.Logger
	WithMetric(metric string) *slog.Logger
	WithError(err error) *slog.Logger
	LogStartup(serviceName string, version string, port int)
	LogShutdown(serviceName string, reason string)
	LogCacheOperation(operation string, key string, hit bool, durationMs int64)
	LogAPIRequest(method string, path string, statusCode int, durationMs int64)
	Logger() *slog.Logger
}

// StandardLogger provides a standardized logging interface.
type StandardLogger struct {
	logger Logger
}

// NewStandardLogger creates a stdout JSON logger at the configured level.
func NewStandardLogger(logLevel string) *StandardLogger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: getSlogLevel(logLevel),
	}))
	return &StandardLogger{logger: &fallbackLogger{logger: logger}}
}

// NewStandardOTLPLogger creates a logger that exports records over OTLP,
// falling back to stdout when the exporter cannot be set up.
func NewStandardOTLPLogger(config OTLPConfig) *StandardLogger {
	otlpLogger, err := NewOTLPLogger(config)
	if err != nil {
		return NewStandardLogger(config.LogLevel)
	}
	return &StandardLogger{logger: &StandardOTLPLogger{OTLPLogger: otlpLogger}}
}

// WithComponent creates a logger with component context.
func (l *StandardLogger) WithComponent(componentName string) *slog.Logger {
	return l.logger.WithComponent(componentName)
}

// WithOperation creates a logger with operation context.
func (l *StandardLogger) WithOperation(operationName string) *slog.Logger {
	return l.logger.WithOperation(operationName)
}

// WithDomain creates a logger with metric-domain context.
func (l *StandardLogger) WithDomain(domain string) *slog.Logger {
	return l.logger.WithDomain(domain)
}

// WithMetric creates a logger with metric-name context.
func (l *StandardLogger) WithMetric(metric string) *slog.Logger {
	return l.logger.WithMetric(metric)
}

// WithError creates a logger with error context.
func (l *StandardLogger) WithError(err error) *slog.Logger {
	return l.logger.WithError(err)
}

// LogStartup logs application startup information.
func (l *StandardLogger) LogStartup(serviceName string, version string, port int) {
	l.logger.LogStartup(serviceName, version, port)
}

// LogShutdown logs application shutdown information.
func (l *StandardLogger) LogShutdown(serviceName string, reason string) {
	l.logger.LogShutdown(serviceName, reason)
}

// LogCacheOperation logs cache operations in a standardized format.
func (l *StandardLogger) LogCacheOperation(operation string, key string, hit bool, durationMs int64) {
	l.logger.LogCacheOperation(operation, key, hit, durationMs)
}

// LogAPIRequest logs API requests in a standardized format.
func (l *StandardLogger) LogAPIRequest(method string, path string, statusCode int, durationMs int64) {
	l.logger.LogAPIRequest(method, path, statusCode, durationMs)
}

// Logger returns the underlying slog.Logger.
func (l *StandardLogger) Logger() *slog.Logger {
	return l.logger.Logger()
}

// fallbackLogger implements Logger on a plain slog.Logger.
type fallbackLogger struct {
	logger *slog.Logger
}

func (f *fallbackLogger) WithComponent(componentName string) *slog.Logger {
	return f.logger.With("component", componentName)
}

func (f *fallbackLogger) WithOperation(operationName string) *slog.Logger {
	return f.logger.With("operation", operationName)
}

func (f *fallbackLogger) WithDomain(domain string) *slog.Logger {
	return f.logger.With("domain", domain)
}

func (f *fallbackLogger) WithMetric(metric string) *slog.Logger {
	return f.logger.With("metric", metric)
}

func (f *fallbackLogger) WithError(err error) *slog.Logger {
	return f.logger.With("error", err.Error())
}

func (f *fallbackLogger) LogStartup(serviceName string, version string, port int) {
	f.logger.Info("Service starting",
		"event", "startup",
		"service", serviceName,
		"version", version,
		"port", port,
	)
}

func (f *fallbackLogger) LogShutdown(serviceName string, reason string) {
	f.logger.Info("Service shutting down",
		"event", "shutdown",
		"service", serviceName,
		"reason", reason,
	)
}

func (f *fallbackLogger) LogCacheOperation(operation string, key string, hit bool, durationMs int64) {
	f.logger.Debug("Cache operation",
		"event", "cache_operation",
		"operation", operation,
		"key", key,
		"hit", hit,
		"duration_ms", durationMs,
	)
}

func (f *fallbackLogger) LogAPIRequest(method string, path string, statusCode int, durationMs int64) {
	f.logger.Info("API request",
		"event", "api_request",
		"method", method,
		"path", path,
		"status_code", statusCode,
		"duration_ms", durationMs,
	)
}

func (f *fallbackLogger) Logger() *slog.Logger {
	return f.logger
}

func getSlogLevel(level string) slog.Level {
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
