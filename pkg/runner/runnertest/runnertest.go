// Package runnertest provides a scripted runner.Runner that records every call
// instead of spawning processes.
package runnertest

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/harun/sessionboot/pkg/runner"
)

// Kind tells which Runner method produced a Call
type Kind string

const (
	KindRun    Kind = "run"
	KindOutput Kind = "output"
	KindStart  Kind = "start"
)

// Call is one recorded invocation
type Call struct {
	Kind Kind
	Spec runner.LaunchSpec
}

// Name returns the base name of the executable
func (c Call) Name() string {
	return filepath.Base(c.Spec.Path)
}

// Result is the scripted outcome for an executable
type Result struct {
	Code   int
	Output []byte
	Err    error
}

// Runner records calls and replays scripted results keyed by executable base
// name. Unscripted executables exit 0 with no output.
type Runner struct {
	mu      sync.Mutex
	results map[string]Result
	paths   map[string]string
	hooks   map[string]func(runner.LaunchSpec)
	calls   []Call
	handles []*Handle
	nextPid int
}

// New creates an empty fake runner
func New() *Runner {
	return &Runner{
		results: make(map[string]Result),
		paths:   make(map[string]string),
		hooks:   make(map[string]func(runner.LaunchSpec)),
		nextPid: 1000,
	}
}

// Script makes name exit with code
func (r *Runner) Script(name string, code int) *Runner {
	return r.ScriptResult(name, Result{Code: code})
}

// ScriptOutput makes name print out and exit with code
func (r *Runner) ScriptOutput(name string, out []byte, code int) *Runner {
	return r.ScriptResult(name, Result{Code: code, Output: out})
}

// ScriptSpawnFailure makes name fail to start
func (r *Runner) ScriptSpawnFailure(name string) *Runner {
	return r.ScriptResult(name, Result{
		Code: runner.ExitSpawnFailed,
		Err:  fmt.Errorf("%w: %s: %v", runner.ErrSpawnFailed, name, exec.ErrNotFound),
	})
}

// ScriptResult sets the full result for name
func (r *Runner) ScriptResult(name string, result Result) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[name] = result
	return r
}

// OnCall registers fn to run, before the result is returned, whenever name is
// invoked. It lets tests simulate side effects of external tools.
func (r *Runner) OnCall(name string, fn func(runner.LaunchSpec)) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = fn
	return r
}

// Install makes LookPath resolve name to path
func (r *Runner) Install(name, path string) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[name] = path
	return r
}

// Run records a KindRun call
func (r *Runner) Run(ctx context.Context, spec runner.LaunchSpec) (int, error) {
	result := r.record(KindRun, spec)
	return result.Code, result.Err
}

// Output records a KindOutput call
func (r *Runner) Output(ctx context.Context, spec runner.LaunchSpec) ([]byte, int, error) {
	result := r.record(KindOutput, spec)
	return result.Output, result.Code, result.Err
}

// Start records a KindStart call and returns a fake handle
func (r *Runner) Start(ctx context.Context, spec runner.LaunchSpec) (runner.Handle, error) {
	result := r.record(KindStart, spec)
	if result.Err != nil {
		return nil, result.Err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPid++
	h := &Handle{pid: r.nextPid, Spec: spec}
	r.handles = append(r.handles, h)
	return h, nil
}

// LookPath resolves installed names
func (r *Runner) LookPath(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if path, ok := r.paths[name]; ok {
		return path, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Calls returns every recorded call in order
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls of the executable with base name
func (r *Runner) CallsTo(name string) []Call {
	var matched []Call
	for _, c := range r.Calls() {
		if c.Name() == name {
			matched = append(matched, c)
		}
	}
	return matched
}

// Names returns the executable base names in call order
func (r *Runner) Names() []string {
	calls := r.Calls()
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Name())
	}
	return names
}

// Handles returns the handles returned by Start
func (r *Runner) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Handle(nil), r.handles...)
}

func (r *Runner) record(kind Kind, spec runner.LaunchSpec) Result {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Kind: kind, Spec: spec})
	name := filepath.Base(spec.Path)
	result := r.results[name]
	hook := r.hooks[name]
	r.mu.Unlock()

	if hook != nil {
		hook(spec)
	}
	return result
}

// Handle is the fake runner.Handle
type Handle struct {
	pid    int
	Spec   runner.LaunchSpec
	killed bool
}

func (h *Handle) Pid() int { return h.pid }

func (h *Handle) Kill() error {
	h.killed = true
	return nil
}

func (h *Handle) Exited() bool { return h.killed }

// Killed reports whether Kill was called
func (h *Handle) Killed() bool { return h.killed }
