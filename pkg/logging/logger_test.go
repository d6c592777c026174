package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"beerbot/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_FileAndRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.log")

	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	cleanup, err := Init(&config.LogConfig{Path: path, Level: "DEBUG"})
	require.NoError(t, err)
	defer cleanup()

	slog.Info("hello", "key", "value")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "previous run\n", string(old))
}

func TestInit_StdoutOnly(t *testing.T) {
	cleanup, err := Init(&config.LogConfig{Level: "INFO"})
	require.NoError(t, err)
	cleanup()
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLevel("Error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
