package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harun/sessionboot/pkg/runner"
)

// ActivationUtility is the default name of the generic tool that updates the
// bus activation environment
const ActivationUtility = "dbus-update-activation-environment"

// ErrActivationSyncFailed is returned when neither tool succeeded
var ErrActivationSyncFailed = errors.New("activation environment sync failed")

// SyncActivationEnvironment propagates the current environment to the bus so
// bus-activated services inherit it. The generic utility is preferred when it is
// on PATH; otherwise the bundled helper runs. Success is exit code zero.
func SyncActivationEnvironment(ctx context.Context, r runner.Runner, utility, helper string) error {
	spec := runner.LaunchSpec{Path: helper}
	if path, err := r.LookPath(utility); err == nil {
		spec = runner.LaunchSpec{Path: path, Args: []string{"--systemd", "--all"}}
	}

	code, err := r.Run(ctx, spec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrActivationSyncFailed, err)
	}
	if code != 0 {
		return fmt.Errorf("%w: %s exited with code %d", ErrActivationSyncFailed, spec.Path, code)
	}
	return nil
}

// ActivationVars converts KEY=VALUE pairs into the map the bus accepts. Pairs
// with an empty key or a key or value that is not valid UTF-8 are dropped: the
// bus rejects the whole update otherwise.
func ActivationVars(pairs []string) map[string]string {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			continue
		}
		if !utf8.ValidString(key) || !utf8.ValidString(value) {
			continue
		}
		vars[key] = value
	}
	return vars
}
