package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args. Flag values live in package
// variables and survive between executions, so they are reset first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

// executeWithInput is execute with input on standard input
func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()

	cfgFile = ""
	logLevel = "info"
	startWayland = false
	initInteractive = false
	initForce = false
	waitPeersTimeout = -1

	cmd := GetRootCmd()
	resetHelp(cmd)

	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return output.String(), err
}

func resetHelp(cmd *cobra.Command) {
	for _, name := range []string{"help", "version"} {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = f.Value.Set("false")
		}
	}
	for _, sub := range cmd.Commands() {
		resetHelp(sub)
	}
}

func hasCommand(name string) bool {
	for _, c := range GetRootCmd().Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func TestRootCommand(t *testing.T) {
	t.Run("version flag", func(t *testing.T) {
		output, err := execute(t, "--version")
		require.NoError(t, err)

		assert.Contains(t, output, "sessionboot version")
		assert.Contains(t, output, GetVersion())
	})

	t.Run("help flag", func(t *testing.T) {
		output, err := execute(t, "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "sessionboot")
		assert.Contains(t, output, "desktop session")
	})

	t.Run("global flags", func(t *testing.T) {
		cmd := GetRootCmd()

		// Check config flag exists
		configFlag := cmd.PersistentFlags().Lookup("config")
		require.NotNil(t, configFlag)
		assert.Equal(t, "", configFlag.DefValue)

		// Check log-level flag exists
		logLevelFlag := cmd.PersistentFlags().Lookup("log-level")
		require.NotNil(t, logLevelFlag)
		assert.Equal(t, "info", logLevelFlag.DefValue)
	})

	t.Run("subcommands", func(t *testing.T) {
		for _, name := range []string{"start", "status", "source", "wait-peers", "init-config"} {
			assert.True(t, hasCommand(name), name)
		}
	})
}

func TestStartCommand(t *testing.T) {
	t.Run("help text", func(t *testing.T) {
		output, err := execute(t, "start", "--help")
		require.NoError(t, err)

		assert.Contains(t, output, "Start the desktop session")
		assert.Contains(t, output, "--wayland")
	})

	t.Run("invalid config is rejected before anything starts", func(t *testing.T) {
		path := writeConfig(t, `{"session": {"desktop": ""}, "state_dir": "`+t.TempDir()+`"}`)

		_, err := execute(t, "start", "--config", path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "desktop")
	})
}

func TestExitError(t *testing.T) {
	err := &ExitError{Code: 1}
	assert.Equal(t, "session exited with status 1", err.Error())
}

func TestHookList(t *testing.T) {
	list := hookList(configHooks())
	require.Len(t, list, 1)
	assert.Equal(t, "notify", list[0].ID)
	assert.Equal(t, "session:startup", list[0].Event)
	assert.Equal(t, 30, int(list[0].Timeout.Seconds()))
	assert.True(t, list[0].Enabled)
}

func TestGetVersion(t *testing.T) {
	version := GetVersion()
	assert.NotEmpty(t, version)
	assert.True(t, strings.HasPrefix(version, "0."))
}
