package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zapLogger, *observer.ObservedLogs) {
	core, observedLogs := observer.New(zapcore.DebugLevel)
	return &zapLogger{logger: zap.New(core)}, observedLogs
}

func TestFieldsToZap(t *testing.T) {
	zl, observedLogs := newObservedLogger()

	t.Run("Typed fields keep their zap types", func(t *testing.T) {
		observedLogs.TakeAll()
		zl.Info("conversion finished",
			NewField("filename", "report.docx"),
			NewField("size_bytes", int64(52428800)),
			NewField("pages", 3),
			NewField("elapsed", 1500*time.Millisecond),
			NewField("verified", true),
		)

		logs := observedLogs.All()
		assert.Len(t, logs, 1)
		fields := logs[0].ContextMap()
		assert.Equal(t, "report.docx", fields["filename"])
		assert.Equal(t, int64(52428800), fields["size_bytes"])
		assert.Equal(t, int64(3), fields["pages"])
		assert.Equal(t, 1500*time.Millisecond, fields["elapsed"])
		assert.Equal(t, true, fields["verified"])
	})

	t.Run("Error values map to the error key", func(t *testing.T) {
		observedLogs.TakeAll()
		zl.Error("delegate failed", NewField("cause", errors.New("soffice exited 1")))

		logs := observedLogs.All()
		assert.Len(t, logs, 1)
		assert.Equal(t, "soffice exited 1", logs[0].ContextMap()["error"])
	})
}

func TestWithAndWithError(t *testing.T) {
	zl, observedLogs := newObservedLogger()

	child := zl.With(NewField("conversion_id", "abc123")).WithError(errors.New("no output"))
	child.Warn("output missing")

	logs := observedLogs.All()
	assert.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "abc123", fields["conversion_id"])
	assert.Equal(t, "no output", fields["error"])
}

func TestNewLogger(t *testing.T) {
	t.Run("Known levels and formats build", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
			for _, format := range []string{"json", "text", "console"} {
				logger, err := NewLogger(level, format)
				assert.NoError(t, err, "level=%s format=%s", level, format)
				assert.NotNil(t, logger)
			}
		}
	})

	t.Run("NewLoggerFromConfig never returns nil", func(t *testing.T) {
		assert.NotNil(t, NewLoggerFromConfig("warn", "text"))
		assert.NotNil(t, NewLoggerFromConfig("", ""))
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("Round trip through context", func(t *testing.T) {
		zl, observedLogs := newObservedLogger()
		ctx := WithLogger(context.Background(), zl)

		FromContext(ctx).Info("from context")
		assert.Len(t, observedLogs.All(), 1)
	})

	t.Run("Missing logger yields no-op", func(t *testing.T) {
		logger := FromContext(context.Background())
		assert.NotNil(t, logger)
		// must not panic
		logger.Info("dropped")
		logger.With(NewField("k", "v")).WithError(errors.New("x")).Error("dropped")
	})
}
