// Package hooks runs user-configured shell scripts at session lifecycle events.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/harun/sessionboot/pkg/environ"
	"github.com/rs/zerolog"
)

// Lifecycle events
const (
	EventStartup  = "session:startup"
	EventShutdown = "session:shutdown"
)

// Environment variables handed to hook scripts
const (
	EventVar      = "SESSIONBOOT_HOOK_EVENT"
	DataVarPrefix = "SESSIONBOOT_HOOK_DATA_"
)

// DefaultShell runs hook scripts when Config.Shell is empty
const DefaultShell = "/bin/sh"

// Hook is one script bound to an event.
type Hook struct {
	ID      string
	Event   string
	Script  string
	Timeout time.Duration
	Enabled bool
}

// Config configures a hook Manager.
type Config struct {
	Enabled bool
	Hooks   []Hook
	Shell   string

	// Env is the environment scripts inherit; read at trigger time so scripts
	// see everything the session exported so far
	Env    environ.Environment
	Logger zerolog.Logger
}

// Manager runs the hooks registered for an event, in configuration order.
type Manager struct {
	enabled      bool
	shell        string
	env          environ.Environment
	logger       zerolog.Logger
	hooksByEvent map[string][]Hook
}

// NewManager validates the enabled hooks and groups them by event.
func NewManager(cfg Config) (*Manager, error) {
	shell := cfg.Shell
	if shell == "" {
		shell = DefaultShell
	}

	manager := &Manager{
		enabled:      cfg.Enabled,
		shell:        shell,
		env:          cfg.Env,
		logger:       cfg.Logger.With().Str("component", "hooks").Logger(),
		hooksByEvent: make(map[string][]Hook),
	}

	if !cfg.Enabled {
		return manager, nil
	}

	for _, hook := range cfg.Hooks {
		if !hook.Enabled {
			continue
		}
		event := strings.TrimSpace(hook.Event)
		if event == "" {
			return nil, fmt.Errorf("hook event is required")
		}
		if strings.TrimSpace(hook.Script) == "" {
			return nil, fmt.Errorf("hook script is required for event %q", event)
		}
		manager.hooksByEvent[event] = append(manager.hooksByEvent[event], hook)
	}

	return manager, nil
}

// Count returns how many hooks are registered for event
func (m *Manager) Count(event string) int {
	if m == nil || !m.enabled {
		return 0
	}
	return len(m.hooksByEvent[event])
}

// Trigger runs every hook registered for event. Each hook runs even if an
// earlier one failed; the failures are joined.
func (m *Manager) Trigger(ctx context.Context, event string, data map[string]interface{}) error {
	if m == nil || !m.enabled {
		return nil
	}
	event = strings.TrimSpace(event)
	if event == "" {
		return fmt.Errorf("event is required")
	}

	hooks := m.hooksByEvent[event]
	if len(hooks) == 0 {
		return nil
	}

	var errs []error
	for _, hook := range hooks {
		if err := m.executeHook(ctx, event, hook, data); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *Manager) executeHook(ctx context.Context, event string, hook Hook, data map[string]interface{}) error {
	hookID := hook.ID
	if strings.TrimSpace(hookID) == "" {
		hookID = event
	}

	runCtx := ctx
	cancel := func() {}
	if hook.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, hook.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, m.shell, "-c", hook.Script)
	cmd.Env = m.buildHookEnvironment(event, data)

	start := time.Now()
	output, err := cmd.CombinedOutput()
	outputText := strings.TrimSpace(string(output))
	if err != nil {
		if outputText != "" {
			return fmt.Errorf("hook %s failed: %w: %s", hookID, err, outputText)
		}
		return fmt.Errorf("hook %s failed: %w", hookID, err)
	}

	m.logger.Debug().
		Str("event", event).
		Str("hook_id", hookID).
		Dur("duration", time.Since(start)).
		Str("output", outputText).
		Msg("Hook executed")

	return nil
}

func (m *Manager) buildHookEnvironment(event string, data map[string]interface{}) []string {
	overrides := map[string]string{EventVar: event}
	for key, value := range data {
		overrides[DataVarPrefix+normalizeEnvKey(key)] = fmt.Sprintf("%v", value)
	}

	var base []string
	if m.env != nil {
		base = m.env.Environ()
	}
	return environ.Merge(base, overrides)
}

func normalizeEnvKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "UNKNOWN"
	}

	upper := strings.ToUpper(key)
	builder := strings.Builder{}
	builder.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			continue
		}
		builder.WriteRune('_')
	}
	return builder.String()
}
