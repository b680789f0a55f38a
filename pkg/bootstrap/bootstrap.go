// Package bootstrap prepares the per-user configuration a session needs before
// anything else starts: it seeds first-run defaults, runs the external config
// normalizer, and sources the files the normalizer generates.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harun/sessionboot/pkg/environ"
	"github.com/harun/sessionboot/pkg/runner"
	"github.com/harun/sessionboot/pkg/sourcer"
	"github.com/rs/zerolog"
)

// Files inside the per-user config directory
const (
	ManifestFile       = "startupconfigkeys"
	LocaleFile         = "plasma-localerc"
	StartupConfigFile  = "startupconfig"
	LocaleSettingsFile = "plasma-locale-settings.sh"
)

// FragmentSourcer sources shell fragments into the environment
type FragmentSourcer interface {
	Source(ctx context.Context, paths []string) ([]sourcer.Change, error)
}

// Config configures a Bootstrapper
type Config struct {
	// ConfigDir is the per-user config directory; derived from the
	// environment when empty
	ConfigDir string

	// Normalizer reconciles the manifest against persisted config
	Normalizer string

	// Manifest defaults to DefaultManifest
	Manifest []ManifestEntry

	Runner  runner.Runner
	Env     environ.Environment
	Sourcer FragmentSourcer
	Logger  zerolog.Logger
}

// Bootstrapper seeds and normalizes the per-user configuration
type Bootstrapper struct {
	configDir  string
	normalizer string
	manifest   []ManifestEntry
	runner     runner.Runner
	env        environ.Environment
	sourcer    FragmentSourcer
	logger     zerolog.Logger
}

// NormalizationError reports a failed normalizer run
type NormalizationError struct {
	Normalizer string
	Code       int
	Err        error
}

func (e *NormalizationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrNormalizationFailed, e.Normalizer, e.Err)
	}
	return fmt.Sprintf("%s: %s exited with code %d", ErrNormalizationFailed, e.Normalizer, e.Code)
}

func (e *NormalizationError) Is(target error) bool {
	return target == ErrNormalizationFailed
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// New creates a Bootstrapper
func New(cfg Config) *Bootstrapper {
	configDir := cfg.ConfigDir
	if configDir == "" && cfg.Env != nil {
		configDir = sourcer.ConfigHome(cfg.Env)
	}
	manifest := cfg.Manifest
	if manifest == nil {
		manifest = DefaultManifest
	}

	return &Bootstrapper{
		configDir:  configDir,
		normalizer: cfg.Normalizer,
		manifest:   manifest,
		runner:     cfg.Runner,
		env:        cfg.Env,
		sourcer:    cfg.Sourcer,
		logger:     cfg.Logger.With().Str("component", "bootstrap").Logger(),
	}
}

// ConfigDir returns the per-user config directory
func (b *Bootstrapper) ConfigDir() string {
	return b.configDir
}

// EnsureConfig makes sure first-run defaults exist and runs the normalizer.
// A directory that cannot be created is only reported; a failing normalizer is
// fatal and returned as *NormalizationError.
func (b *Bootstrapper) EnsureConfig(ctx context.Context) error {
	if b.configDir == "" {
		return ErrNoConfigDir
	}

	if err := os.MkdirAll(b.configDir, 0700); err != nil {
		b.logger.Warn().Err(err).Str("dir", b.configDir).Msg("Could not create config directory")
	}

	// Always rewritten so the defaults track the running version.
	manifestPath := filepath.Join(b.configDir, ManifestFile)
	if err := WriteFile(manifestPath, RenderManifest(b.manifest)); err != nil {
		return err
	}
	b.logger.Debug().
		Str("path", manifestPath).
		Int("entries", len(b.manifest)).
		Msg("Wrote startup config manifest")

	// Preload the user's locale on first start only.
	localePath := filepath.Join(b.configDir, LocaleFile)
	if _, err := os.Stat(localePath); errors.Is(err, os.ErrNotExist) {
		contents := "[Formats]\nLANG=" + b.env.Get("LANG") + "\n"
		if err := WriteFile(localePath, []byte(contents)); err != nil {
			return err
		}
		b.logger.Info().Str("path", localePath).Str("lang", b.env.Get("LANG")).Msg("Seeded locale preferences")
	}

	return b.normalize(ctx)
}

func (b *Bootstrapper) normalize(ctx context.Context) error {
	code, err := b.runner.Run(ctx, runner.LaunchSpec{Path: b.normalizer})
	if err != nil {
		return &NormalizationError{Normalizer: b.normalizer, Code: code, Err: err}
	}
	if code != 0 {
		return &NormalizationError{Normalizer: b.normalizer, Code: code}
	}
	return nil
}

// StartupConfigFiles returns the generated files RunStartupConfig sources
func (b *Bootstrapper) StartupConfigFiles() []string {
	return []string{
		filepath.Join(b.configDir, StartupConfigFile),
		filepath.Join(b.configDir, LocaleSettingsFile),
	}
}

// RunStartupConfig sources the normalizer's output so resolved values, and the
// LC_* variables from the locale settings, are visible to later steps.
func (b *Bootstrapper) RunStartupConfig(ctx context.Context) error {
	changes, err := b.sourcer.Source(ctx, b.StartupConfigFiles())
	if err != nil {
		return fmt.Errorf("sourcing startup config: %w", err)
	}
	b.logger.Debug().Int("changed", len(changes)).Msg("Startup config sourced")
	return nil
}

// WriteFile replaces the contents of path
func WriteFile(path string, contents []byte) error {
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return fmt.Errorf("could not write into %s: %w", path, err)
	}
	return nil
}
