// Package environ models the environment inherited by every child process of a
// session. Components receive an Environment instead of touching the process
// environment directly, so writes can be observed and compared.
package environ

import (
	"os"
	"sort"
	"strings"
)

// Environment is a mutable mapping of variable name to value.
type Environment interface {
	// Lookup returns the value of key and whether it is set.
	Lookup(key string) (string, bool)

	// Get returns the value of key, or "" when unset.
	Get(key string) string

	// Set assigns value to key.
	Set(key, value string) error

	// Unset removes key.
	Unset(key string) error

	// Environ returns the environment as KEY=VALUE pairs.
	Environ() []string
}

// Process is an Environment backed by the current process environment.
type Process struct{}

// NewProcess returns the process-backed environment
func NewProcess() *Process {
	return &Process{}
}

func (p *Process) Lookup(key string) (string, bool) { return os.LookupEnv(key) }

func (p *Process) Get(key string) string { return os.Getenv(key) }

func (p *Process) Set(key, value string) error { return os.Setenv(key, value) }

func (p *Process) Unset(key string) error { return os.Unsetenv(key) }

func (p *Process) Environ() []string { return os.Environ() }

// Map is an in-memory Environment. It counts Set calls per key.
type Map struct {
	vars map[string]string
	sets map[string]int
}

// NewMap creates a Map seeded with initial. The seed does not count as Set calls.
func NewMap(initial map[string]string) *Map {
	m := &Map{
		vars: make(map[string]string, len(initial)),
		sets: make(map[string]int),
	}
	for k, v := range initial {
		m.vars[k] = v
	}
	return m
}

// FromEnviron creates a Map from KEY=VALUE pairs, such as os.Environ().
func FromEnviron(pairs []string) *Map {
	m := NewMap(nil)
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		m.vars[key] = value
	}
	return m
}

func (m *Map) Lookup(key string) (string, bool) {
	v, ok := m.vars[key]
	return v, ok
}

func (m *Map) Get(key string) string { return m.vars[key] }

func (m *Map) Set(key, value string) error {
	m.vars[key] = value
	m.sets[key]++
	return nil
}

func (m *Map) Unset(key string) error {
	delete(m.vars, key)
	return nil
}

// Environ returns the pairs sorted by key.
func (m *Map) Environ() []string {
	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+m.vars[k])
	}
	return pairs
}

// SetCount returns how many times Set was called for key.
func (m *Map) SetCount(key string) int {
	return m.sets[key]
}

// Sets returns the total number of Set calls.
func (m *Map) Sets() int {
	total := 0
	for _, n := range m.sets {
		total += n
	}
	return total
}

// SetIfChanged writes value only when it differs from the current value of key,
// or when key is unset. It reports whether a write happened.
func SetIfChanged(env Environment, key, value string) (bool, error) {
	if current, ok := env.Lookup(key); ok && current == value {
		return false, nil
	}
	if err := env.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Merge layers overrides on top of base. Later entries win, so the result is
// suitable for exec.Cmd.Env.
func Merge(base []string, overrides map[string]string) []string {
	result := make([]string, 0, len(base)+len(overrides))
	result = append(result, base...)
	if len(overrides) == 0 {
		return result
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		result = append(result, k+"="+overrides[k])
	}
	return result
}

// PrependPath returns list with entry in front, unless entry is already one of
// the colon-separated elements of list.
func PrependPath(list, entry string) string {
	if list == "" {
		return entry
	}
	for _, element := range strings.Split(list, ":") {
		if element == entry {
			return list
		}
	}
	return entry + ":" + list
}
