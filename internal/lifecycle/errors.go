package lifecycle

import "errors"

// ErrAlreadyRunning is returned when another process holds the instance lock
var ErrAlreadyRunning = errors.New("a session is already running")
