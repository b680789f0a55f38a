package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("console output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "info", Console: true, ConsoleOut: &buf})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Str("component", "test").Msg("Console message")

		assert.Contains(t, buf.String(), `"message":"Console message"`)
		assert.Contains(t, buf.String(), `"component":"test"`)
	})

	t.Run("pretty console output", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "info", Console: true, Pretty: true, ConsoleOut: &buf})
		require.NoError(t, err)
		defer logger.Close()

		logger.Info().Msg("Pretty message")

		assert.Contains(t, buf.String(), "Pretty message")
		assert.NotContains(t, buf.String(), `"message"`)
	})

	t.Run("file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "logs", "session.log")

		logger, err := New(Config{Level: "debug", File: logFile})
		require.NoError(t, err)

		logger.Info().Msg("test message")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
	})

	t.Run("rotating file output", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "session.log")

		logger, err := New(Config{Level: "info", File: logFile, MaxSize: 1})
		require.NoError(t, err)
		_, ok := logger.file.(*RotatingWriter)
		assert.True(t, ok)
		require.NoError(t, logger.Close())
	})

	t.Run("redaction", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: "debug", Console: true, ConsoleOut: &buf, Redaction: true})
		require.NoError(t, err)
		defer logger.Close()

		zl := logger.GetZerolog()
		zl.Debug().
			Str("key", "SSH_AUTH_TOKEN").
			Str("value", "very-secret").
			Msg("Setting environment variable")

		assert.NotNil(t, logger.redactor)
		assert.NotContains(t, buf.String(), "very-secret")
		assert.Contains(t, buf.String(), `"value":"[REDACTED]"`)
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "chatty"})
		require.NoError(t, err)
		defer logger.Close()

		assert.Equal(t, zerolog.InfoLevel, logger.GetZerolog().GetLevel())
	})

	t.Run("unwritable log directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		_, err := New(Config{File: filepath.Join(blocker, "session.log")})
		assert.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.True(t, cfg.Console)
	assert.True(t, cfg.Pretty)
	assert.True(t, cfg.Redaction)
	assert.Equal(t, 10, cfg.MaxSize)
	assert.Equal(t, 7, cfg.MaxAge)
	assert.True(t, cfg.Compress)
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Console: true, ConsoleOut: &buf})
	require.NoError(t, err)
	defer logger.Close()

	child := logger.With().Str("run_id", "abc").Logger()
	child.Error().Msg("Child message")

	assert.Contains(t, buf.String(), `"run_id":"abc"`)
	assert.Contains(t, buf.String(), `"level":"error"`)
}
