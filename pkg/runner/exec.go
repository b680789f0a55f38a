package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/harun/sessionboot/pkg/environ"
	"github.com/rs/zerolog"
)

// Exec runs children with os/exec. The child environment is taken from env at
// spawn time, so variables set by earlier steps are inherited.
type Exec struct {
	env    environ.Environment
	stdout io.Writer
	stderr io.Writer
	logger zerolog.Logger
}

// Option configures an Exec runner
type Option func(*Exec)

// WithOutput replaces the writers child output is forwarded to
func WithOutput(stdout, stderr io.Writer) Option {
	return func(e *Exec) {
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewExec creates a runner that inherits env
func NewExec(env environ.Environment, logger zerolog.Logger, opts ...Option) *Exec {
	e := &Exec{
		env:    env,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: logger.With().Str("component", "runner").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes spec and waits for it
func (e *Exec) Run(ctx context.Context, spec LaunchSpec) (int, error) {
	cmd, err := e.command(spec)
	if err != nil {
		return ExitSpawnFailed, err
	}
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	return e.wait(spec, cmd)
}

// Output executes spec and returns what it wrote to stdout
func (e *Exec) Output(ctx context.Context, spec LaunchSpec) ([]byte, int, error) {
	cmd, err := e.command(spec)
	if err != nil {
		return nil, ExitSpawnFailed, err
	}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = e.stderr

	code, err := e.wait(spec, cmd)
	return stdout.Bytes(), code, err
}

// Start launches spec in the background. The child is reaped by a goroutine so
// it never lingers as a zombie.
func (e *Exec) Start(ctx context.Context, spec LaunchSpec) (Handle, error) {
	cmd, err := e.command(spec)
	if err != nil {
		return nil, err
	}
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, spec.Path, err)
	}

	h := &process{cmd: cmd}
	go func() {
		_ = cmd.Wait()
		h.exited.Store(true)
	}()

	e.logger.Debug().
		Str("command", spec.Path).
		Strs("args", spec.Args).
		Int("pid", cmd.Process.Pid).
		Msg("Started background process")

	return h, nil
}

// LookPath resolves name against PATH
func (e *Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func (e *Exec) command(spec LaunchSpec) (*exec.Cmd, error) {
	if spec.Path == "" {
		return nil, ErrEmptyPath
	}

	// No CommandContext: a started child is never aborted from here.
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = environ.Merge(e.env.Environ(), spec.Env)

	if len(spec.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(spec.Stdin)
	}

	return cmd, nil
}

func (e *Exec) wait(spec LaunchSpec, cmd *exec.Cmd) (int, error) {
	start := time.Now()

	if err := cmd.Start(); err != nil {
		e.logger.Warn().
			Err(err).
			Str("command", spec.Path).
			Msg("Could not start process")
		return ExitSpawnFailed, fmt.Errorf("%w: %s: %v", ErrSpawnFailed, spec.Path, err)
	}

	e.logger.Debug().
		Str("command", spec.Path).
		Strs("args", spec.Args).
		Msg("Started process")

	err := cmd.Wait()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return ExitSpawnFailed, fmt.Errorf("waiting for %s: %w", spec.Path, err)
		}
		exitCode = exitStatus(exitErr)
	}

	e.logger.Debug().
		Str("command", spec.Path).
		Int("exit_code", exitCode).
		Dur("duration", duration).
		Msg("Process finished")

	return exitCode, nil
}

// exitStatus maps termination by signal to 128+signal, the way shells report
// it, so it never collides with ExitSpawnFailed.
func exitStatus(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return exitErr.ExitCode()
}

type process struct {
	cmd    *exec.Cmd
	exited atomic.Bool
}

func (p *process) Pid() int { return p.cmd.Process.Pid }

func (p *process) Exited() bool { return p.exited.Load() }

func (p *process) Kill() error {
	if p.exited.Load() {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}
