package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentscout/scout/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected config.LogLevel
	}{
		{"off", config.LogLevelOff},
		{"OFF", config.LogLevelOff},
		{"none", config.LogLevelOff},
		{"error", config.LogLevelError},
		{"debug", config.LogLevelDebug},
		{"  Debug  ", config.LogLevelDebug},
		{"warn", config.LogLevelError},
		{"", config.LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, config.ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "off", config.LogLevelOff.String())
	assert.Equal(t, "error", config.LogLevelError.String())
	assert.Equal(t, "debug", config.LogLevelDebug.String())
	assert.Equal(t, "error", config.LogLevel(42).String())
}

func TestNewLogger_Disabled(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		level config.LogLevel
		path  string
	}{
		{"level off", config.LogLevelOff, filepath.Join(t.TempDir(), "x.log")},
		{"empty path", config.LogLevelDebug, ""},
	} {
		logger, err := config.NewLogger(tc.level, tc.path)
		require.NoError(t, err, tc.name)
		logger.Debug("ignored")
		logger.Error("ignored")
		require.NoError(t, logger.Close(), tc.name)
	}
}

func TestNewLogger_WritesFile(t *testing.T) {
	t.Parallel()
	logPath := filepath.Join(t.TempDir(), "nested", "scout.log")

	logger, err := config.NewLogger(config.LogLevelDebug, logPath)
	require.NoError(t, err)

	logger.Debug("connect attempt %d", 3)
	logger.Error("connect failed: %s", "boom")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(logPath) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Contains(t, string(content), "DEBUG")
	assert.Contains(t, string(content), "connect attempt 3")
	assert.Contains(t, string(content), "ERROR")
	assert.Contains(t, string(content), "connect failed: boom")
}

func TestNewLogger_InvalidPath(t *testing.T) {
	t.Parallel()
	_, err := config.NewLogger(config.LogLevelDebug, "/proc/nonexistent/test.log")
	assert.Error(t, err)
}

func TestLogger_LevelFiltering(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := config.NewWriterLogger(config.LogLevelError, &buf)

	logger.Debug("hidden")
	logger.Error("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	logger.SetLevel(config.LogLevelOff)
	logger.Error("silenced")
	assert.NotContains(t, buf.String(), "silenced")
	assert.Equal(t, config.LogLevelOff, logger.Level())
}

func TestLogger_Writer(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := config.NewWriterLogger(config.LogLevelDebug, &buf)

	n, err := logger.Writer(config.LogLevelDebug).Write([]byte("  from writer \n"))
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	assert.Contains(t, buf.String(), "from writer")
}

func TestNullLogger(t *testing.T) {
	t.Parallel()
	logger := config.NullLogger()
	assert.Equal(t, config.LogLevelOff, logger.Level())
	logger.Debug("x")
	logger.Error("y")
	assert.NoError(t, logger.Close())
}
