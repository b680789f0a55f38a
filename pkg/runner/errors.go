package runner

import "errors"

var (
	// ErrSpawnFailed is returned when the executable could not be started
	ErrSpawnFailed = errors.New("failed to start process")

	// ErrEmptyPath is returned when a LaunchSpec has no executable
	ErrEmptyPath = errors.New("launch spec has no executable")
)
