package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Wizard provides an interactive configuration wizard
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizard creates a wizard reading answers from in and prompting on out
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// Run asks for the settings most installs change and returns the resulting
// config. An empty answer keeps the default.
func (w *Wizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "=== sessionboot Configuration Wizard ===")
	fmt.Fprintln(w.out)

	cfg := DefaultConfig()
	validator := NewValidator()

	// Session
	fmt.Fprintf(w.out, "Desktop name [%s]: ", cfg.Session.Desktop)
	desktop, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if desktop != "" {
		cfg.Session.Desktop = desktop
	}

	fmt.Fprint(w.out, "Wayland session? (y/n) [n]: ")
	wayland, err := w.readLine()
	if err != nil {
		return nil, err
	}
	cfg.Session.Wayland = strings.ToLower(wayland) == "y"

	fmt.Fprintln(w.out)

	// Crash handlers
	fmt.Fprint(w.out, "Wait for crash handlers at shutdown? (y/n) [y]: ")
	wait, err := w.readLine()
	if err != nil {
		return nil, err
	}
	cfg.CrashHandlers.Enabled = wait == "" || strings.ToLower(wait) == "y"

	if cfg.CrashHandlers.Enabled {
		for {
			fmt.Fprintf(w.out, "Wait timeout in seconds [%d]: ", cfg.CrashHandlers.Timeout)
			answer, err := w.readLine()
			if err != nil {
				return nil, err
			}
			if answer == "" {
				break
			}
			timeout, err := strconv.Atoi(answer)
			if err != nil || timeout < 0 {
				fmt.Fprintln(w.out, "Error: timeout must be a non-negative number of seconds")
				continue
			}
			cfg.CrashHandlers.Timeout = timeout
			break
		}
	}

	fmt.Fprintln(w.out)

	// Log Level
	fmt.Fprintln(w.out, "Logging:")
	fmt.Fprint(w.out, "Log level (debug/info/warn/error) [info]: ")
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}

	if level != "" {
		if err := validator.ValidateLogLevel(level); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using default (info)\n", err)
		} else {
			cfg.Logging.Level = level
		}
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return cfg, nil
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
