// Package lifecycle keeps a single session per state directory and records the
// process that owns it.
package lifecycle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// Files inside the state directory
const (
	LockFile = "sessionboot.lock"
	PIDFile  = "sessionboot.pid"
)

// Instance is the held single-session lock
type Instance struct {
	lock    *flock.Flock
	pidFile string
	logger  zerolog.Logger
}

// Acquire takes the instance lock in stateDir without blocking and writes the
// PID file. A lock held by another process yields ErrAlreadyRunning.
func Acquire(stateDir string, logger zerolog.Logger) (*Instance, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	lock := flock.New(filepath.Join(stateDir, LockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		if pid, err := ReadPID(stateDir); err == nil {
			return nil, fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
		}
		return nil, ErrAlreadyRunning
	}

	inst := &Instance{
		lock:    lock,
		pidFile: filepath.Join(stateDir, PIDFile),
		logger:  logger.With().Str("component", "lifecycle").Logger(),
	}

	if err := os.WriteFile(inst.pidFile, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("failed to write PID file: %w", err)
	}

	inst.logger.Info().
		Str("pid_file", inst.pidFile).
		Int("pid", os.Getpid()).
		Msg("Instance lock acquired")

	return inst, nil
}

// Release removes the PID file and unlocks
func (i *Instance) Release() error {
	if err := os.Remove(i.pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	if err := i.lock.Unlock(); err != nil {
		return fmt.Errorf("releasing instance lock: %w", err)
	}

	i.logger.Info().Msg("Instance lock released")
	return nil
}

// ReadPID returns the PID recorded in stateDir
func ReadPID(stateDir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, PIDFile))
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}

	return pid, nil
}

// Status describes the session owning a state directory
type Status struct {
	Running bool
	PID     int
	Uptime  time.Duration
}

// GetStatus reports whether a session holds the lock in stateDir. The lock,
// not the PID file, is authoritative: a stale PID file left by a crash does not
// count as running.
func GetStatus(stateDir string) (Status, error) {
	lock := flock.New(filepath.Join(stateDir, LockFile))
	locked, err := lock.TryRLock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("probing instance lock: %w", err)
	}
	if locked {
		lock.Unlock()
		return Status{}, nil
	}

	status := Status{Running: true}
	if pid, err := ReadPID(stateDir); err == nil {
		status.PID = pid
	}
	if info, err := os.Stat(filepath.Join(stateDir, PIDFile)); err == nil {
		status.Uptime = time.Since(info.ModTime())
	}
	return status, nil
}
