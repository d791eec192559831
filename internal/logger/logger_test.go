package logger

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_DETAILED", "true")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.True(t, cfg.DetailedLogging)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, "stderr", cfg.Output)
}

func TestOutputWriter(t *testing.T) {
	assert.Same(t, os.Stderr, outputWriter(""))
	assert.Same(t, os.Stderr, outputWriter("stderr"))
	assert.Same(t, os.Stdout, outputWriter("STDOUT"))
}

func TestLoadConfigFromEnv_BadBool(t *testing.T) {
	t.Setenv("LOG_DETAILED", "maybe")
	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestInitWithConfig_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "agentsim.log")
	t.Cleanup(func() {
		_ = InitWithConfig(LogConfig{Level: "INFO", Format: "json"})
	})

	require.NoError(t, InitWithConfig(LogConfig{
		Level:           "DEBUG",
		Format:          "json",
		DetailedLogging: true,
		File:            path,
		MaxSizeMB:       1,
	}))
	assert.True(t, IsDebugEnabled())

	ctx := context.Background()
	Info(ctx, "hello", "k", 1)
	Decision(ctx, "a1", "X", "BUY", 3, 10.5)
	ErrorWithErr(ctx, "failed", errors.New("boom"))
	op := StartOperation(ctx, "unit", "n", 1)
	op.End("done", true)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `"msg":"hello"`)
	assert.Contains(t, out, `"type":"DECISION"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"msg":"Operation completed"`)
}
