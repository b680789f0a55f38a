package config

import (
	"fmt"
	"strings"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateExecutable checks that an executable is configured
func (v *Validator) ValidateExecutable(name, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("tools.%s cannot be empty", name)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateHookEvent validates a hook event name
func (v *Validator) ValidateHookEvent(event string) error {
	validEvents := []string{"session:startup", "session:shutdown"}
	for _, valid := range validEvents {
		if event == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid hook event: %s (must be one of: %s)", event, strings.Join(validEvents, ", "))
}

// ValidateCrashHandlers validates the shutdown wait settings
func (v *Validator) ValidateCrashHandlers(c CrashHandlersConfig) []error {
	var errors []error
	if c.Timeout < 0 {
		errors = append(errors, fmt.Errorf("crash_handlers.timeout must be >= 0"))
	}
	if c.PollInterval <= 0 {
		errors = append(errors, fmt.Errorf("crash_handlers.poll_interval must be > 0"))
	}
	if c.ServicePrefix == "" {
		errors = append(errors, fmt.Errorf("crash_handlers.service_prefix is required"))
	}
	if !strings.HasPrefix(c.QuitPath, "/") {
		errors = append(errors, fmt.Errorf("crash_handlers.quit_path must be an absolute object path"))
	}
	if !strings.Contains(c.QuitMethod, ".") {
		errors = append(errors, fmt.Errorf("crash_handlers.quit_method must be interface-qualified"))
	}
	return errors
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if strings.TrimSpace(cfg.Session.Desktop) == "" {
		errors = append(errors, fmt.Errorf("session.desktop is required"))
	}
	if cfg.Session.ProtocolVersion <= 0 {
		errors = append(errors, fmt.Errorf("session.protocol_version must be > 0"))
	}

	required := []struct{ name, path string }{
		{"shell", cfg.Tools.Shell},
		{"normalizer", cfg.Tools.Normalizer},
		{"core_init", cfg.Tools.CoreInit},
		{"session_wrapper", cfg.Tools.SessionWrapper},
		{"session_manager", cfg.Tools.SessionManager},
		{"message_box", cfg.Tools.MessageBox},
		{"activation_helper", cfg.Tools.ActivationHelper},
	}
	if !cfg.Session.Wayland {
		required = append(required,
			struct{ name, path string }{"xsetroot", cfg.Tools.Xsetroot},
			struct{ name, path string }{"xprop", cfg.Tools.Xprop},
		)
	}
	for _, tool := range required {
		if err := v.ValidateExecutable(tool.name, tool.path); err != nil {
			errors = append(errors, err)
		}
	}

	if cfg.CrashHandlers.Enabled {
		errors = append(errors, v.ValidateCrashHandlers(cfg.CrashHandlers)...)
	}

	if cfg.Hooks.Enabled {
		for i, hook := range cfg.Hooks.Entries {
			if !hook.Enabled {
				continue
			}
			if err := v.ValidateHookEvent(strings.TrimSpace(hook.Event)); err != nil {
				errors = append(errors, fmt.Errorf("hook %d: %w", i, err))
			}
			if strings.TrimSpace(hook.Script) == "" {
				errors = append(errors, fmt.Errorf("hook %d: script is required", i))
			}
			if hook.Timeout < 0 {
				errors = append(errors, fmt.Errorf("hook %d: timeout must be >= 0", i))
			}
		}
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Textfile == "" {
		errors = append(errors, fmt.Errorf("metrics.textfile is required when metrics are enabled"))
	}

	return errors
}
