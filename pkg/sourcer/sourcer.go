// Package sourcer merges shell environment fragments into an environment.
//
// The fragments are sourced by a single shell invocation, which prints the
// resulting environment; every variable whose value differs from the current
// one is written back. Unchanged variables are never written.
package sourcer

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/harun/sessionboot/pkg/environ"
	"github.com/harun/sessionboot/pkg/runner"
	"github.com/rs/zerolog"
)

//go:embed sourceenv.sh
var bootstrapScript string

// shellPidVar is the variable the shell itself maintains for the last command.
const shellPidVar = "_"

// Config configures a Sourcer
type Config struct {
	// Shell runs the bootstrap script, /bin/sh when empty
	Shell string

	// Bootstrap is an optional script file used instead of the embedded one.
	// It receives the fragments as arguments and must print `env` output.
	Bootstrap string

	Runner runner.Runner
	Env    environ.Environment
	Logger zerolog.Logger

	// Readable filters the fragment list, Readable when nil
	Readable func(path string) bool
}

// Sourcer sources fragments into an environment
type Sourcer struct {
	shell     string
	bootstrap string
	runner    runner.Runner
	env       environ.Environment
	readable  func(string) bool
	logger    zerolog.Logger
}

// Change is one variable written by Source
type Change struct {
	Key      string
	Value    string
	Previous string
	WasSet   bool
}

// New creates a Sourcer
func New(cfg Config) *Sourcer {
	shell := cfg.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	readable := cfg.Readable
	if readable == nil {
		readable = Readable
	}

	return &Sourcer{
		shell:     shell,
		bootstrap: cfg.Bootstrap,
		runner:    cfg.Runner,
		env:       cfg.Env,
		readable:  readable,
		logger:    cfg.Logger.With().Str("component", "sourcer").Logger(),
	}
}

// Source sources paths in order and applies the resulting environment. Missing
// or unreadable paths are skipped; when none remain no shell is spawned.
func (s *Sourcer) Source(ctx context.Context, paths []string) ([]Change, error) {
	var fragments []string
	for _, path := range paths {
		if s.readable(path) {
			fragments = append(fragments, path)
		}
	}
	if len(fragments) == 0 {
		return nil, nil
	}

	s.logger.Debug().Strs("fragments", fragments).Msg("Sourcing environment fragments")

	out, code, err := s.runner.Output(ctx, s.launchSpec(fragments))
	if err != nil {
		return nil, fmt.Errorf("sourcing %d fragments: %w", len(fragments), err)
	}
	if code != 0 {
		// The shell may still have printed a usable environment when a later
		// command in a fragment failed.
		s.logger.Warn().Int("exit_code", code).Strs("fragments", fragments).Msg("Shell exited non-zero while sourcing fragments")
	}

	return s.apply(out)
}

func (s *Sourcer) launchSpec(fragments []string) runner.LaunchSpec {
	if s.bootstrap != "" {
		return runner.LaunchSpec{
			Path: s.shell,
			Args: append([]string{s.bootstrap}, fragments...),
		}
	}

	args := make([]string, 0, len(fragments)+3)
	args = append(args, "-c", bootstrapScript, "sessionboot-sourceenv")
	args = append(args, fragments...)
	return runner.LaunchSpec{Path: s.shell, Args: args}
}

func (s *Sourcer) apply(out []byte) ([]Change, error) {
	var changes []Change

	for _, pair := range ParseEnvironment(out) {
		previous, wasSet := s.env.Lookup(pair.Key)
		changed, err := environ.SetIfChanged(s.env, pair.Key, pair.Value)
		if err != nil {
			return changes, fmt.Errorf("setting %s: %w", pair.Key, err)
		}
		if !changed {
			continue
		}

		s.logger.Debug().
			Str("key", pair.Key).
			Str("value", pair.Value).
			Str("was", previous).
			Msg("Setting environment variable")

		changes = append(changes, Change{
			Key:      pair.Key,
			Value:    pair.Value,
			Previous: previous,
			WasSet:   wasSet,
		})
	}

	return changes, nil
}

// Pair is one KEY=VALUE line
type Pair struct {
	Key   string
	Value string
}

// ParseEnvironment parses `env` output. The shell's own "_" variable and lines
// without a key before the first '=' are skipped. Values are kept byte for byte.
func ParseEnvironment(out []byte) []Pair {
	var pairs []Pair

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}
		key := line[:idx]
		if key == shellPidVar {
			continue
		}
		pairs = append(pairs, Pair{Key: key, Value: line[idx+1:]})
	}

	return pairs
}
