package sequencer

import (
	"context"
	"fmt"
	"io"

	"github.com/harun/sessionboot/pkg/runner"
)

// Notifier shows a fatal message to the user and blocks until it is dismissed
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// XMessage writes the message to a diagnostic stream and shows it in a minimal
// X client that works before any window manager runs
type XMessage struct {
	runner runner.Runner
	tool   string
	out    io.Writer
}

// NewXMessage creates a notifier running tool
func NewXMessage(r runner.Runner, tool string, out io.Writer) *XMessage {
	return &XMessage{runner: r, tool: tool, out: out}
}

// Notify blocks until the message box is closed
func (x *XMessage) Notify(ctx context.Context, message string) error {
	fmt.Fprint(x.out, message)

	code, err := x.runner.Run(ctx, runner.LaunchSpec{
		Path: x.tool,
		Args: []string{"-geometry", "500x100", message},
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s exited with code %d", x.tool, code)
	}
	return nil
}
