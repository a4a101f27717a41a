package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
}

// Setup applies app.log_level and app.mode. Development mode logs text,
// everything else logs JSON.
func Setup(level, mode string) {
	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		parsedLevel = logrus.InfoLevel
	}
	log.SetLevel(parsedLevel)

	if mode == "development" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05",
		})
		return
	}
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
}

// SetOutput redirects all log output. The run command sends logs to stderr
// so stdout carries only the run result.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

func withContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(log)
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		entry = entry.WithField("trace_id", traceID)
	}
	return entry
}

func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(fields)
}

// WithAxis scopes an entry to one capacity axis of a resource
func WithAxis(resourceID string, axis string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"resource_id": resourceID,
		"axis":        axis,
	})
}

// WithRun scopes an entry to one run, carrying the trace id found in ctx
func WithRun(ctx context.Context, runID, resourceID string) *logrus.Entry {
	return withContext(ctx).WithFields(logrus.Fields{
		"run_id":      runID,
		"resource_id": resourceID,
	})
}

func Info(msg string) {
	log.Info(msg)
}

func Warn(msg string) {
	log.Warn(msg)
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

func ErrorCtxf(ctx context.Context, format string, args ...interface{}) {
	withContext(ctx).Errorf(format, args...)
}
