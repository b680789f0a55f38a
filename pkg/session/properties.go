package session

import (
	"context"
	"fmt"

	"github.com/harun/sessionboot/pkg/runner"
)

// Property is a named value on the display server's root window
type Property struct {
	Name string

	// Format is the xprop format string, e.g. "8t" for text or "32c" for a
	// cardinal
	Format string

	Value string
}

// RootCursorProperty is the pseudo-property for the root window cursor. It is
// not a window property; publishers set it through the cursor mechanism.
const RootCursorProperty = "_ROOT_CURSOR"

// PropertyPublisher mutates the process-wide property store
type PropertyPublisher interface {
	Set(ctx context.Context, p Property) error
	Remove(ctx context.Context, name string) error
}

// X11Publisher publishes root window properties with xprop and xsetroot
type X11Publisher struct {
	runner   runner.Runner
	xprop    string
	xsetroot string
}

// NewX11Publisher creates a publisher running the given tools
func NewX11Publisher(r runner.Runner, xprop, xsetroot string) *X11Publisher {
	return &X11Publisher{runner: r, xprop: xprop, xsetroot: xsetroot}
}

// Set publishes p
func (x *X11Publisher) Set(ctx context.Context, p Property) error {
	if p.Name == RootCursorProperty {
		return x.run(ctx, x.xsetroot, "-cursor_name", p.Value)
	}
	return x.run(ctx, x.xprop, "-root", "-f", p.Name, p.Format, "-set", p.Name, p.Value)
}

// Remove deletes the property name
func (x *X11Publisher) Remove(ctx context.Context, name string) error {
	return x.run(ctx, x.xprop, "-root", "-remove", name)
}

func (x *X11Publisher) run(ctx context.Context, tool string, args ...string) error {
	code, err := x.runner.Run(ctx, runner.LaunchSpec{Path: tool, Args: args})
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s exited with code %d", tool, code)
	}
	return nil
}

// NopPublisher discards every mutation. Wayland sessions have no root window.
type NopPublisher struct{}

func (NopPublisher) Set(ctx context.Context, p Property) error { return nil }

func (NopPublisher) Remove(ctx context.Context, name string) error { return nil }
