// Package monitoring provides the service's structured logging, metrics
// registry, and the gin middleware that feeds both.
package monitoring

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"
)

var processStart = time.Now()

// Logger wraps slog with domain-specific helpers and a mutable level.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// NewLogger builds a JSON logger writing to stdout. The time attribute
// is renamed "timestamp" and rendered RFC3339 for log pipelines.
func NewLogger() *Logger {
	level := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("timestamp", a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler), level: level}
}

// SetLevel adjusts the logging level in place. Loggers derived from this
// one, including a global default installed via slog.SetDefault, pick up
// the change immediately.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// RequestLogger records one completed HTTP request.
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// AnalysisLogger records the outcome of one repository analysis.
func (l *Logger) AnalysisLogger(repo string, level string, readme, health, activity, engagement float64, duration time.Duration) {
	l.Info("Analysis Completed",
		"repo", repo,
		"level", level,
		"readme_quality", readme,
		"health_score", health,
		"activity_score", activity,
		"engagement_score", engagement,
		"duration_ms", duration.Milliseconds(),
	)
}

// APIErrorLogger records a request that ended in an error, tagging the
// call site two frames up (the middleware that invoked it).
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	caller := "unknown"
	if _, file, line, ok := runtime.Caller(2); ok {
		caller = file + ":" + strconv.Itoa(line)
	}

	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"caller", caller,
	)
}

// SystemLogger records a service-level event with process uptime.
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(processStart).String(),
	)
}

// PerformanceLogger records a one-off performance observation.
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
		"timestamp", time.Now().Format(time.RFC3339),
	)
}
