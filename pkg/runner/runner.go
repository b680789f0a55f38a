package runner

import (
	"context"
	"fmt"
)

// ExitSpawnFailed is the exit code reported when the child never started.
// Real processes cannot exit with a negative code, so callers branching on
// exact codes never confuse it with a child's own status.
const ExitSpawnFailed = -1

// LaunchSpec describes one child process
type LaunchSpec struct {
	// Path is the executable, either absolute or looked up in PATH
	Path string

	// Args are the command arguments, without the program name
	Args []string

	// Env holds overrides layered on top of the inherited environment
	Env map[string]string

	// Stdin is written to the child's standard input when non-empty
	Stdin []byte
}

// String returns the string representation of the launch spec.
func (s LaunchSpec) String() string {
	return fmt.Sprintf("{Path: %q Args: %v}", s.Path, s.Args)
}

// Handle refers to a child started without waiting for it
type Handle interface {
	// Pid returns the process id
	Pid() int

	// Kill terminates the process if it is still running
	Kill() error

	// Exited reports whether the process has been reaped
	Exited() bool
}

// Runner executes external tools synchronously.
//
// Run and Output block until the child exits and never apply a timeout. A child
// that hangs forever hangs the caller.
type Runner interface {
	// Run starts the child with stdout/stderr forwarded to ours and returns
	// its exit code.
	Run(ctx context.Context, spec LaunchSpec) (int, error)

	// Output is like Run but captures standard output.
	Output(ctx context.Context, spec LaunchSpec) ([]byte, int, error)

	// Start launches the child and returns without waiting for it.
	Start(ctx context.Context, spec LaunchSpec) (Handle, error)

	// LookPath resolves name against PATH.
	LookPath(name string) (string, error)
}
