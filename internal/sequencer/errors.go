package sequencer

import (
	"errors"
	"fmt"
)

var (
	// ErrCoreInitFailed is returned when the core initialization helper exits
	// non-zero or cannot be started
	ErrCoreInitFailed = errors.New("core initialization failed")

	// ErrSessionManagerFailed is returned when the session manager wrapper
	// reports that the session manager could not be started
	ErrSessionManagerFailed = errors.New("session manager could not be started")

	// errSkipped marks a step that had nothing to do
	errSkipped = errors.New("step skipped")
)

// FatalError stops the sequence. Message is shown to the user verbatim.
type FatalError struct {
	Step    string
	Message string
	Err     error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }
