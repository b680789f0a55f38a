package config

import (
	"encoding/json"
	"errors"
	"time"
)

// Config represents the sessionboot configuration
type Config struct {
	// Session identity and search paths
	Session SessionConfig `json:"session" mapstructure:"session"`

	// External executables
	Tools ToolsConfig `json:"tools" mapstructure:"tools"`

	// Shutdown wait for crash handler instances
	CrashHandlers CrashHandlersConfig `json:"crash_handlers" mapstructure:"crash_handlers"`

	// Lifecycle hooks
	Hooks HooksConfig `json:"hooks" mapstructure:"hooks"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// State directory for the instance lock, PID file and log
	StateDir string `json:"state_dir" mapstructure:"state_dir"`
}

// SessionConfig describes the session being started
type SessionConfig struct {
	Desktop         string `json:"desktop" mapstructure:"desktop"`
	ProtocolVersion int    `json:"protocol_version" mapstructure:"protocol_version"`

	// DataDir is this session's own data directory, kept first in XDG_DATA_DIRS
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	RootCursor         string `json:"root_cursor" mapstructure:"root_cursor"`
	DefaultCursorTheme string `json:"default_cursor_theme" mapstructure:"default_cursor_theme"`

	// XcursorPath is exported as XCURSOR_PATH when a cursor theme or size is
	// configured; "$XCURSOR_PATH" is replaced by the inherited value
	XcursorPath string `json:"xcursor_path" mapstructure:"xcursor_path"`

	// FragmentSubdir is searched for *.sh fragments in every config directory
	FragmentSubdir string `json:"fragment_subdir" mapstructure:"fragment_subdir"`

	Wayland bool `json:"wayland" mapstructure:"wayland"`
}

// ToolsConfig names every external executable the session runs
type ToolsConfig struct {
	Shell string `json:"shell" mapstructure:"shell"`

	// SourceBootstrap replaces the built-in sourcing script when set
	SourceBootstrap string `json:"source_bootstrap" mapstructure:"source_bootstrap"`

	Normalizer        string   `json:"normalizer" mapstructure:"normalizer"`
	Splash            string   `json:"splash" mapstructure:"splash"`
	CoreInit          string   `json:"core_init" mapstructure:"core_init"`
	CoreInitArgs      []string `json:"core_init_args" mapstructure:"core_init_args"`
	CoreShutdown      string   `json:"core_shutdown" mapstructure:"core_shutdown"`
	SessionWrapper    string   `json:"session_wrapper" mapstructure:"session_wrapper"`
	SessionManager    string   `json:"session_manager" mapstructure:"session_manager"`
	CursorApplier     string   `json:"cursor_applier" mapstructure:"cursor_applier"`
	MessageBox        string   `json:"message_box" mapstructure:"message_box"`
	ActivationUtility string   `json:"activation_utility" mapstructure:"activation_utility"`
	ActivationHelper  string   `json:"activation_helper" mapstructure:"activation_helper"`
	Xsetroot          string   `json:"xsetroot" mapstructure:"xsetroot"`
	Xprop             string   `json:"xprop" mapstructure:"xprop"`
	Xrdb              string   `json:"xrdb" mapstructure:"xrdb"`
}

// CrashHandlersConfig configures the shutdown wait
type CrashHandlersConfig struct {
	Enabled       bool   `json:"enabled" mapstructure:"enabled"`
	Timeout       int    `json:"timeout" mapstructure:"timeout"`             // seconds
	PollInterval  int    `json:"poll_interval" mapstructure:"poll_interval"` // seconds
	ServicePrefix string `json:"service_prefix" mapstructure:"service_prefix"`
	QuitPath      string `json:"quit_path" mapstructure:"quit_path"`
	QuitMethod    string `json:"quit_method" mapstructure:"quit_method"`
}

// TimeoutDuration returns Timeout as a duration
func (c CrashHandlersConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// PollDuration returns PollInterval as a duration
func (c CrashHandlersConfig) PollDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

// HooksConfig holds lifecycle hooks
type HooksConfig struct {
	Enabled bool        `json:"enabled" mapstructure:"enabled"`
	Entries []HookEntry `json:"entries" mapstructure:"entries"`
}

// HookEntry is one configured hook
type HookEntry struct {
	ID      string `json:"id" mapstructure:"id"`
	Event   string `json:"event" mapstructure:"event"`
	Script  string `json:"script" mapstructure:"script"`
	Timeout int    `json:"timeout" mapstructure:"timeout"` // seconds
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// Textfile is written in the Prometheus text format when the sequence ends
	Textfile string `json:"textfile" mapstructure:"textfile"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Desktop:            "KDE",
			ProtocolVersion:    5,
			DataDir:            "/usr/share",
			RootCursor:         "left_ptr",
			DefaultCursorTheme: "breeze_cursors",
			XcursorPath:        "$XCURSOR_PATH:~/.icons:/usr/share/icons:/usr/share/pixmaps:/usr/X11R6/lib/X11/icons",
			FragmentSubdir:     "plasma-workspace/env",
		},
		Tools: ToolsConfig{
			Shell:             "/bin/sh",
			Normalizer:        "kstartupconfig5",
			Splash:            "ksplashqml",
			CoreInit:          "/usr/libexec/kf5/start_kdeinit_wrapper",
			CoreInitArgs:      []string{"--kded", "+kcminit_startup"},
			CoreShutdown:      "kdeinit5_shutdown",
			SessionWrapper:    "kwrapper5",
			SessionManager:    "/usr/bin/ksmserver",
			CursorApplier:     "kapplymousetheme",
			MessageBox:        "xmessage",
			ActivationUtility: "dbus-update-activation-environment",
			ActivationHelper:  "/usr/libexec/sessionboot-syncenv",
			Xsetroot:          "xsetroot",
			Xprop:             "xprop",
			Xrdb:              "xrdb",
		},
		CrashHandlers: CrashHandlersConfig{
			Enabled:       true,
			Timeout:       900,
			PollInterval:  5,
			ServicePrefix: "org.kde.drkonqi-",
			QuitPath:      "/MainApplication",
			QuitMethod:    "org.qtproject.Qt.QCoreApplication.quit",
		},
		Hooks: HooksConfig{
			Enabled: false,
			Entries: []HookEntry{},
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   10,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		StateDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks semantic constraints the schema cannot express
func (c *Config) Validate() error {
	return errors.Join(NewValidator().ValidateConfig(c)...)
}
