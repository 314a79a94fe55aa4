package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := NewLogger(path)
	require.NoError(t, err)
	logger.SetConsole(nil)
	t.Cleanup(func() { _ = logger.Close() })
	return logger, path
}

func TestLogWritesLevelAndAttrs(t *testing.T) {
	logger, path := newTestLogger(t)

	logger.Info("pipeline finished", "rows", 42)
	logger.Warning("no group reaches the minimum sample size")
	logger.Fatal("boom")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[0], `msg="pipeline finished"`)
	assert.Contains(t, lines[0], "rows=42")
	assert.Contains(t, lines[1], "level=WARNING")
	assert.Contains(t, lines[2], "level=FATAL")
}

func TestSubscribe(t *testing.T) {
	logger, _ := newTestLogger(t)
	sub := logger.Subscribe()

	logger.Debug("hello", "k", "v")

	select {
	case entry := <-sub:
		assert.Contains(t, entry, "level=DEBUG")
		assert.Contains(t, entry, "k=v")
	default:
		t.Fatal("subscriber received nothing")
	}

	logger.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok)
}

func TestReopen(t *testing.T) {
	logger, _ := newTestLogger(t)
	next := filepath.Join(t.TempDir(), "next.log")

	require.NoError(t, logger.Reopen(next))
	logger.Error("after reopen")

	data, err := os.ReadFile(next)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after reopen")
}

func TestCheckRotate(t *testing.T) {
	logger, path := newTestLogger(t)
	logger.Info(strings.Repeat("x", 200))

	require.NoError(t, logger.CheckRotate("10 * 10"))
	logger.Info("fresh")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fresh")
	assert.NotContains(t, string(data), "xxxx")

	rotated, err := filepath.Glob(filepath.Join(filepath.Dir(path), "app.*.log"))
	require.NoError(t, err)
	assert.Len(t, rotated, 1)

	assert.Error(t, logger.CheckRotate("ten"))
	assert.NoError(t, logger.CheckRotate(""))
}

func TestParseSize(t *testing.T) {
	n, err := parseSize("10 * 1024 * 1024")
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024*1024), n)

	n, err = parseSize("512")
	require.NoError(t, err)
	assert.Equal(t, int64(512), n)
}
