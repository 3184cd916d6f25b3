package logging

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct{ err error }

func (c *fakeCloser) Close() error { return c.err }

type fakeTx struct{ err error }

func (t *fakeTx) Rollback() error { return t.err }

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return New(buf, slog.LevelDebug, "json")
}

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, "text").Info("hello", "n", 1)
	assert.Contains(t, buf.String(), "msg=hello n=1")

	buf.Reset()
	New(&buf, slog.LevelInfo, "json").Info("hello", "n", 1)
	assert.Contains(t, buf.String(), `"msg":"hello","n":1`)

	buf.Reset()
	New(&buf, slog.LevelWarn, "text").Info("dropped")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLogOperation_SkipsZeroDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	LogOperation(logger, "export", slog.Duration("duration", 0), slog.Int("rows", 3))
	assert.NotContains(t, buf.String(), "duration")
	assert.Contains(t, buf.String(), `"rows":3`)

	buf.Reset()
	LogOperation(logger, "export", slog.Duration("duration", time.Second))
	assert.Contains(t, buf.String(), `"duration":1000000000`)
}

func TestSafeCloseWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	SafeCloseWithLogging(&fakeCloser{}, logger, "close_zip")
	assert.Empty(t, buf.String())

	SafeCloseWithLogging(&fakeCloser{err: assert.AnError}, logger, "close_zip")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), `"msg":"close failed"`)
	assert.Contains(t, buf.String(), `"operation":"close_zip"`)

	SafeCloseWithLogging(nil, logger, "nil")
}

func TestSafeRollbackWithLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := jsonLogger(&buf)

	SafeRollbackWithLogging(&fakeTx{}, logger, "import")
	SafeRollbackWithLogging(&fakeTx{err: sql.ErrTxDone}, logger, "import")
	SafeRollbackWithLogging(&fakeTx{err: fmt.Errorf("rollback: %w", sql.ErrTxDone)}, logger, "import")
	assert.Empty(t, buf.String())

	SafeRollbackWithLogging(&fakeTx{err: assert.AnError}, logger, "import")
	assert.Contains(t, buf.String(), `"msg":"rollback failed"`)
}

func TestContextLogger(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	logger := jsonLogger(&buf)
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))
}
