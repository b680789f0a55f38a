package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/harun/sessionboot/pkg/environ"
)

// Session marker names, shared by the property store and the environment
const (
	FullSessionVar    = "KDE_FULL_SESSION"
	SessionVersionVar = "KDE_SESSION_VERSION"
	SessionUIDVar     = "KDE_SESSION_UID"
	CurrentDesktopVar = "XDG_CURRENT_DESKTOP"
	AutoScreenScale   = "QT_AUTO_SCREEN_SCALE_FACTOR"
)

// Markers identify one running session
type Markers struct {
	Desktop string
	Version int
	UID     int

	// Cursor is the root window cursor shown until a window manager runs
	Cursor string
}

// Properties returns the published properties in publication order
func (m Markers) Properties() []Property {
	return []Property{
		{Name: RootCursorProperty, Value: m.Cursor},
		{Name: FullSessionVar, Format: "8t", Value: "true"},
		{Name: SessionVersionVar, Format: "32c", Value: strconv.Itoa(m.Version)},
	}
}

// Withdrawn returns the property names removed at shutdown. The cursor stays.
func (m Markers) Withdrawn() []string {
	return []string{FullSessionVar, SessionVersionVar}
}

// Publish sets every property. Each is attempted even if an earlier one fails.
func (m Markers) Publish(ctx context.Context, pub PropertyPublisher) error {
	var errs []error
	for _, p := range m.Properties() {
		if err := pub.Set(ctx, p); err != nil {
			errs = append(errs, fmt.Errorf("publishing %s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Withdraw removes the session properties
func (m Markers) Withdraw(ctx context.Context, pub PropertyPublisher) error {
	var errs []error
	for _, name := range m.Withdrawn() {
		if err := pub.Remove(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Export writes the session markers into env for every child started later
func (m Markers) Export(env environ.Environment) error {
	vars := []struct{ key, value string }{
		// Scaling is applied by the session; toolkits must not scale again.
		{AutoScreenScale, "0"},
		{FullSessionVar, "true"},
		{SessionVersionVar, strconv.Itoa(m.Version)},
		{SessionUIDVar, strconv.Itoa(m.UID)},
		{CurrentDesktopVar, m.Desktop},
	}

	for _, v := range vars {
		if err := env.Set(v.key, v.value); err != nil {
			return fmt.Errorf("exporting %s: %w", v.key, err)
		}
	}
	return nil
}

// Unexport removes the session identity variables from env
func (m Markers) Unexport(env environ.Environment) error {
	var errs []error
	for _, key := range []string{FullSessionVar, SessionVersionVar, SessionUIDVar} {
		if err := env.Unset(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
