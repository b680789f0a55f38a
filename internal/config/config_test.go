package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "KDE", cfg.Session.Desktop)
	assert.Equal(t, 5, cfg.Session.ProtocolVersion)
	assert.Equal(t, "plasma-workspace/env", cfg.Session.FragmentSubdir)
	assert.Equal(t, "breeze_cursors", cfg.Session.DefaultCursorTheme)
	assert.True(t, cfg.CrashHandlers.Enabled)
	assert.Equal(t, 900, cfg.CrashHandlers.Timeout)
	assert.Equal(t, 5, cfg.CrashHandlers.PollInterval)
	assert.Equal(t, "org.kde.drkonqi-", cfg.CrashHandlers.ServicePrefix)
	assert.Equal(t, []string{"--kded", "+kcminit_startup"}, cfg.Tools.CoreInitArgs)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Hooks.Enabled)
}

func TestCrashHandlersDurations(t *testing.T) {
	c := DefaultConfig().CrashHandlers
	assert.Equal(t, 15*time.Minute, c.TimeoutDuration())
	assert.Equal(t, 5*time.Second, c.PollDuration())
}

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing executables", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tools.SessionWrapper = ""
		cfg.Tools.Normalizer = " "

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tools.session_wrapper cannot be empty")
		assert.Contains(t, err.Error(), "tools.normalizer cannot be empty")
	})

	t.Run("x11 tools optional on wayland", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Session.Wayland = true
		cfg.Tools.Xprop = ""
		cfg.Tools.Xsetroot = ""

		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid crash handler wait", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CrashHandlers.PollInterval = 0
		cfg.CrashHandlers.Timeout = -1

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "poll_interval must be > 0")
		assert.Contains(t, err.Error(), "timeout must be >= 0")
	})

	t.Run("disabled crash handler wait is not checked", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CrashHandlers.Enabled = false
		cfg.CrashHandlers.PollInterval = 0

		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "trace"

		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestConfigString(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, `"crash_handlers"`)
	assert.Contains(t, s, `"service_prefix": "org.kde.drkonqi-"`)
}
