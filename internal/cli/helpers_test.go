package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harun/sessionboot/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessionboot.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func configHooks() config.HooksConfig {
	return config.HooksConfig{
		Enabled: true,
		Entries: []config.HookEntry{
			{ID: "notify", Event: "session:startup", Script: "true", Timeout: 30, Enabled: true},
		},
	}
}
