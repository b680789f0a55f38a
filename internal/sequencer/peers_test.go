package sequencer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harun/sessionboot/pkg/session/sessiontest"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func peerConfig(timeout time.Duration) PeerWaitConfig {
	return PeerWaitConfig{
		Enabled:      true,
		Timeout:      timeout,
		PollInterval: 5 * time.Second,
		Prefix:       "org.kde.drkonqi-",
		QuitPath:     "/MainApplication",
		QuitMethod:   "org.qtproject.Qt.QCoreApplication.quit",
	}
}

type waitOutcome struct {
	result PeerWaitResult
	err    error
}

func waitAsync(ctx context.Context, dir *sessiontest.Directory, clock clockwork.Clock, cfg PeerWaitConfig) <-chan waitOutcome {
	done := make(chan waitOutcome, 1)
	go func() {
		result, err := WaitForShutdownPeers(ctx, dir, clock, cfg, zerolog.Nop())
		done <- waitOutcome{result, err}
	}()
	return done
}

func receive(t *testing.T, done <-chan waitOutcome) waitOutcome {
	t.Helper()
	select {
	case out := <-done:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return")
		return waitOutcome{}
	}
}

func TestWaitForShutdownPeers(t *testing.T) {
	t.Run("disabled does not look", func(t *testing.T) {
		dir := sessiontest.NewDirectory().Register("org.kde.drkonqi-1", "")
		cfg := peerConfig(time.Second)
		cfg.Enabled = false

		result, err := WaitForShutdownPeers(context.Background(), dir, clockwork.NewFakeClock(), cfg, zerolog.Nop())

		require.NoError(t, err)
		assert.Zero(t, dir.Listed())
		assert.Empty(t, result.Quit)
	})

	t.Run("no matching services returns without sleeping", func(t *testing.T) {
		dir := sessiontest.NewDirectory().Register("org.kde.kded5", "")
		clock := clockwork.NewFakeClock()

		result, err := WaitForShutdownPeers(context.Background(), dir, clock, peerConfig(900*time.Second), zerolog.Nop())

		require.NoError(t, err)
		assert.Equal(t, 1, dir.Listed())
		assert.Zero(t, result.Polls)
		assert.Zero(t, result.Waited)
		assert.Empty(t, dir.Calls())
	})

	t.Run("returns once services exit", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		dir := sessiontest.NewDirectory().Register("org.kde.drkonqi-42", "")
		clock := clockwork.NewFakeClock()
		done := waitAsync(ctx, dir, clock, peerConfig(900*time.Second))

		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		dir.Unregister("org.kde.drkonqi-42")
		clock.Advance(5 * time.Second)

		out := receive(t, done)
		require.NoError(t, out.err)
		assert.Equal(t, 1, out.result.Polls)
		assert.Empty(t, out.result.Quit)
		assert.Empty(t, dir.Calls())
		assert.Equal(t, 5*time.Second, out.result.Waited)
	})

	t.Run("timeout quits each remaining service once", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		dir := sessiontest.NewDirectory().
			Register(":1.10", "").
			Register("org.kde.drkonqi-100", ":1.10").
			Register("org.kde.drkonqi-101", ":1.10").
			Register("org.kde.drkonqi-200", "").
			Register("org.kde.kwin", "")
		clock := clockwork.NewFakeClock()
		done := waitAsync(ctx, dir, clock, peerConfig(time.Second))

		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(5 * time.Second)

		out := receive(t, done)
		require.NoError(t, out.err)
		assert.Equal(t, []string{"org.kde.drkonqi-100", "org.kde.drkonqi-200"}, out.result.Quit)

		calls := dir.Calls()
		require.Len(t, calls, 2)
		for i, service := range out.result.Quit {
			assert.Equal(t, service, calls[i].Service)
			assert.Equal(t, "/MainApplication", calls[i].Path)
			assert.Equal(t, "org.qtproject.Qt.QCoreApplication.quit", calls[i].Method)
		}
		assert.Equal(t, 1, out.result.Polls)
	})

	t.Run("cancelled context stops the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		dir := sessiontest.NewDirectory().Register("org.kde.drkonqi-7", "")
		clock := clockwork.NewFakeClock()
		done := waitAsync(ctx, dir, clock, peerConfig(900*time.Second))

		waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer waitCancel()
		require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
		cancel()

		out := receive(t, done)
		assert.ErrorIs(t, out.err, context.Canceled)
		assert.Empty(t, dir.Calls())
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		dir := sessiontest.NewDirectory().FailList(errors.New("bus gone"))

		_, err := WaitForShutdownPeers(context.Background(), dir, clockwork.NewFakeClock(), peerConfig(time.Second), zerolog.Nop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "bus gone")
	})
}
