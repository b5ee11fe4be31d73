package logging

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(t *testing.T, level slog.Level) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))), &buf
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var res []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		res = append(res, rec)
	}
	return res
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "cache miss", "post_id", 1)
	log.Info(ctx, "post created", "post_id", 2)
	log.Warn(ctx, "image cleanup failed", "path", "/uploads/x.png")
	log.Error(ctx, "feed render failed", "format", "rss2")

	got := records(t, buf)
	require.Len(t, got, 4)

	want := []struct{ level, msg string }{
		{"DEBUG", "cache miss"},
		{"INFO", "post created"},
		{"WARN", "image cleanup failed"},
		{"ERROR", "feed render failed"},
	}
	for i, w := range want {
		assert.Equal(t, w.level, got[i]["level"])
		assert.Equal(t, w.msg, got[i]["msg"])
	}
	assert.Equal(t, float64(2), got[1]["post_id"])
	assert.Equal(t, "rss2", got[3]["format"])
}

func TestSlogLogger_LevelFilter(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelWarn)
	ctx := context.Background()

	log.Debug(ctx, "hidden")
	log.Info(ctx, "hidden")
	log.Warn(ctx, "shown")

	got := records(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "shown", got[0]["msg"])
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelInfo)

	child := log.With("request_id", "abc", "user", "admin")
	child.Info(context.Background(), "post deleted", "post_id", 7)
	log.Info(context.Background(), "parent")

	got := records(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "abc", got[0]["request_id"])
	assert.Equal(t, "admin", got[0]["user"])
	assert.Equal(t, float64(7), got[0]["post_id"])
	assert.NotContains(t, got[1], "request_id")
}

func TestSlogLogger_ContextFields(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelInfo)

	ctx := ContextWith(context.Background(), "request_id", "req-1")
	ctx = ContextWith(ctx, "user", "admin")
	log.Info(ctx, "post updated", "post_id", 3)
	log.Info(context.Background(), "startup")

	got := records(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "req-1", got[0]["request_id"])
	assert.Equal(t, "admin", got[0]["user"])
	assert.Equal(t, float64(3), got[0]["post_id"])
	assert.NotContains(t, got[1], "request_id")
}

func TestContextWith_DoesNotShareParentFields(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelInfo)

	parent := ContextWith(context.Background(), "request_id", "req-1")
	a := ContextWith(parent, "branch", "a")
	b := ContextWith(parent, "branch", "b")
	log.Info(a, "first")
	log.Info(b, "second")
	log.Info(parent, "third", "extra", 1)
	log.Info(parent, "fourth")

	got := records(t, buf)
	require.Len(t, got, 4)
	assert.Equal(t, "a", got[0]["branch"])
	assert.Equal(t, "b", got[1]["branch"])
	assert.NotContains(t, got[3], "extra")
	assert.Same(t, parent, ContextWith(parent))
}

func TestSlogLogger_ContextFieldsSkippedBelowLevel(t *testing.T) {
	log, buf := jsonLogger(t, slog.LevelWarn)

	log.Info(ContextWith(context.Background(), "request_id", "req-1"), "hidden")

	assert.Empty(t, records(t, buf))
}
