package sourcer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harun/sessionboot/pkg/environ"
)

// FragmentPattern matches environment fragments inside a search directory
const FragmentPattern = "*.sh"

// ConfigDirs returns the configuration search path: the user directory first,
// then the system directories.
func ConfigDirs(env environ.Environment) []string {
	var dirs []string

	if home := ConfigHome(env); home != "" {
		dirs = append(dirs, home)
	}

	system := env.Get("XDG_CONFIG_DIRS")
	if system == "" {
		system = "/etc/xdg"
	}
	for _, dir := range strings.Split(system, ":") {
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// ConfigHome returns the per-user writable configuration directory
func ConfigHome(env environ.Environment) string {
	if dir := env.Get("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	if home := env.Get("HOME"); home != "" {
		return filepath.Join(home, ".config")
	}
	return ""
}

// Discover lists the fragments in <dir>/<subdir> for every dir, in directory
// order and filename order within a directory. Missing directories are skipped.
func Discover(dirs []string, subdir string) []string {
	var scripts []string
	seen := make(map[string]bool)

	for _, dir := range dirs {
		location := filepath.Join(dir, subdir)
		if seen[location] {
			continue
		}
		seen[location] = true

		info, err := os.Stat(location)
		if err != nil || !info.IsDir() {
			continue
		}

		matches, err := filepath.Glob(filepath.Join(location, FragmentPattern))
		if err != nil {
			continue
		}
		sort.Strings(matches)

		for _, match := range matches {
			abs, err := filepath.Abs(match)
			if err != nil {
				abs = match
			}
			scripts = append(scripts, abs)
		}
	}

	return scripts
}
