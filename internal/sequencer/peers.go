package sequencer

import (
	"context"
	"time"

	"github.com/harun/sessionboot/pkg/session"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// PeerWaitConfig configures WaitForShutdownPeers
type PeerWaitConfig struct {
	Enabled      bool
	Timeout      time.Duration
	PollInterval time.Duration

	// Prefix selects crash handler services by exact name prefix
	Prefix string

	// QuitPath and QuitMethod address the graceful quit request
	QuitPath   string
	QuitMethod string
}

// PeerWaitResult summarizes one wait
type PeerWaitResult struct {
	// Polls counts the lookups after the initial one
	Polls int

	// Remaining is the last lookup's result
	Remaining []string

	// Quit lists the services asked to quit after the timeout
	Quit []string

	Waited time.Duration
}

// WaitForShutdownPeers gives crash handlers a grace period before the session
// ends. It polls the directory every PollInterval while matching services
// exist. Once Timeout has elapsed, every service still listed is asked to quit
// once and the wait ends whether or not they comply. With no matching service
// it returns without sleeping.
func WaitForShutdownPeers(ctx context.Context, dir session.ServiceDirectory, clock clockwork.Clock, cfg PeerWaitConfig, logger zerolog.Logger) (result PeerWaitResult, err error) {
	if !cfg.Enabled {
		return result, nil
	}

	start := clock.Now()
	defer func() { result.Waited = clock.Since(start) }()

	services, err := session.FindServices(ctx, dir, cfg.Prefix)
	if err != nil {
		return result, err
	}
	result.Remaining = services

	for len(services) > 0 {
		logger.Info().
			Strs("services", services).
			Dur("elapsed", clock.Since(start)).
			Msg("Waiting for crash handlers")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-clock.After(cfg.PollInterval):
		}

		services, err = session.FindServices(ctx, dir, cfg.Prefix)
		if err != nil {
			return result, err
		}
		result.Polls++
		result.Remaining = services

		if clock.Since(start) >= cfg.Timeout {
			for _, service := range services {
				if err := dir.Call(ctx, service, cfg.QuitPath, cfg.QuitMethod); err != nil {
					logger.Warn().Err(err).Str("service", service).Msg("Quit request failed")
				}
				result.Quit = append(result.Quit, service)
			}
			if len(services) > 0 {
				logger.Warn().
					Strs("services", services).
					Dur("timeout", cfg.Timeout).
					Msg("Crash handlers still running after timeout, asked them to quit")
			}
			break
		}
	}

	return result, nil
}
