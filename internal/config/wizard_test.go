package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWizardRun(t *testing.T) {
	t.Run("defaults on empty answers", func(t *testing.T) {
		var out bytes.Buffer
		cfg, err := NewWizard(strings.NewReader("\n\n\n\n\n"), &out).Run()

		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
		assert.Contains(t, out.String(), "Configuration complete!")
	})

	t.Run("custom answers with a retry", func(t *testing.T) {
		var out bytes.Buffer
		answers := "Plasma\ny\ny\nsoon\n60\ndebug\n"

		cfg, err := NewWizard(strings.NewReader(answers), &out).Run()

		require.NoError(t, err)
		assert.Equal(t, "Plasma", cfg.Session.Desktop)
		assert.True(t, cfg.Session.Wayland)
		assert.Equal(t, 60, cfg.CrashHandlers.Timeout)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Contains(t, out.String(), "Error: timeout must be")
	})

	t.Run("disabling the wait skips the timeout", func(t *testing.T) {
		cfg, err := NewWizard(strings.NewReader("\nn\nn\nbogus\n"), &bytes.Buffer{}).Run()

		require.NoError(t, err)
		assert.False(t, cfg.CrashHandlers.Enabled)
		assert.Equal(t, "info", cfg.Logging.Level)
	})

	t.Run("input ends early", func(t *testing.T) {
		_, err := NewWizard(strings.NewReader(""), &bytes.Buffer{}).Run()
		assert.Error(t, err)
	})
}
