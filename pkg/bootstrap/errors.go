package bootstrap

import "errors"

var (
	// ErrNormalizationFailed is returned when the config normalizer exits non-zero
	// or cannot be started
	ErrNormalizationFailed = errors.New("config normalization failed")

	// ErrNoConfigDir is returned when no per-user config directory can be derived
	ErrNoConfigDir = errors.New("no per-user config directory")
)
