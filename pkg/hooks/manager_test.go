package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harun/sessionboot/pkg/environ"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv() *environ.Map {
	return environ.NewMap(map[string]string{"PATH": os.Getenv("PATH")})
}

func TestManagerTriggerExecutesHookScript(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "startup.txt")

	manager, err := NewManager(Config{
		Enabled: true,
		Env:     testEnv(),
		Logger:  zerolog.Nop(),
		Hooks: []Hook{
			{
				ID:      "startup",
				Event:   EventStartup,
				Script:  "echo startup > " + outputPath,
				Enabled: true,
			},
		},
	})
	require.NoError(t, err)

	require.NoError(t, manager.Trigger(context.Background(), EventStartup, nil))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "startup\n", string(content))
}

func TestManagerTriggerInjectsEventDataIntoEnvironment(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "env.txt")
	env := testEnv()
	require.NoError(t, env.Set("XDG_CURRENT_DESKTOP", "KDE"))

	manager, err := NewManager(Config{
		Enabled: true,
		Env:     env,
		Logger:  zerolog.Nop(),
		Hooks: []Hook{
			{
				ID:      "shutdown",
				Event:   EventShutdown,
				Script:  "echo \"$SESSIONBOOT_HOOK_EVENT:$SESSIONBOOT_HOOK_DATA_EXIT_CODE:$XDG_CURRENT_DESKTOP\" > " + outputPath,
				Enabled: true,
			},
		},
	})
	require.NoError(t, err)

	require.NoError(t, manager.Trigger(context.Background(), EventShutdown, map[string]interface{}{
		"exit-code": 0,
	}))

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "session:shutdown:0:KDE\n", string(content))
}

func TestManagerTriggerReturnsJoinedErrors(t *testing.T) {
	manager, err := NewManager(Config{
		Enabled: true,
		Env:     testEnv(),
		Logger:  zerolog.Nop(),
		Hooks: []Hook{
			{ID: "fail-1", Event: EventStartup, Script: "exit 2", Enabled: true},
			{ID: "fail-2", Event: EventStartup, Script: "exit 3", Enabled: true},
		},
	})
	require.NoError(t, err)

	err = manager.Trigger(context.Background(), EventStartup, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook fail-1 failed")
	assert.Contains(t, err.Error(), "hook fail-2 failed")
}

func TestManagerTriggerRespectsTimeout(t *testing.T) {
	manager, err := NewManager(Config{
		Enabled: true,
		Env:     testEnv(),
		Logger:  zerolog.Nop(),
		Hooks: []Hook{
			{
				ID:      "timeout",
				Event:   EventStartup,
				Script:  "sleep 1",
				Enabled: true,
				Timeout: 30 * time.Millisecond,
			},
		},
	})
	require.NoError(t, err)

	err = manager.Trigger(context.Background(), EventStartup, nil)
	require.Error(t, err)
	assert.True(t,
		strings.Contains(err.Error(), "deadline exceeded") || strings.Contains(err.Error(), "signal: killed"),
		"expected timeout-related error, got: %v",
		err,
	)
}

func TestNewManagerValidation(t *testing.T) {
	t.Run("missing script", func(t *testing.T) {
		_, err := NewManager(Config{
			Enabled: true,
			Hooks:   []Hook{{Event: EventStartup, Enabled: true}},
		})
		assert.Error(t, err)
	})

	t.Run("disabled hooks are skipped", func(t *testing.T) {
		manager, err := NewManager(Config{
			Enabled: true,
			Hooks:   []Hook{{Event: EventStartup, Enabled: false}},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, manager.Count(EventStartup))
	})

	t.Run("disabled manager is a no-op", func(t *testing.T) {
		manager, err := NewManager(Config{
			Hooks: []Hook{{Event: EventStartup, Script: "exit 1", Enabled: true}},
		})
		require.NoError(t, err)
		assert.NoError(t, manager.Trigger(context.Background(), EventStartup, nil))
	})
}

func TestNormalizeEnvKey(t *testing.T) {
	assert.Equal(t, "EXIT_CODE", normalizeEnvKey("exit-code"))
	assert.Equal(t, "UNKNOWN", normalizeEnvKey("  "))
}
