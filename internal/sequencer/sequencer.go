// Package sequencer drives a session from startup to shutdown.
//
// The sequence is strictly linear and runs on the caller's goroutine: every
// external tool is awaited before the next step starts. Steps are either
// fatal (config bootstrap, core init, session manager start) or best-effort;
// best-effort failures are logged and never stop the sequence.
package sequencer

import (
	"context"
	"errors"
	"os"

	"github.com/harun/sessionboot/internal/config"
	"github.com/harun/sessionboot/internal/metrics"
	"github.com/harun/sessionboot/pkg/bootstrap"
	"github.com/harun/sessionboot/pkg/environ"
	"github.com/harun/sessionboot/pkg/hooks"
	"github.com/harun/sessionboot/pkg/runner"
	"github.com/harun/sessionboot/pkg/session"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ConfigBootstrapper prepares the per-user configuration
type ConfigBootstrapper interface {
	EnsureConfig(ctx context.Context) error
	RunStartupConfig(ctx context.Context) error
}

// HookTrigger runs lifecycle hooks
type HookTrigger interface {
	Trigger(ctx context.Context, event string, data map[string]interface{}) error
}

// Deps are the collaborators of a Sequencer
type Deps struct {
	Runner       runner.Runner
	Env          environ.Environment
	Sourcer      bootstrap.FragmentSourcer
	Bootstrapper ConfigBootstrapper
	Publisher    session.PropertyPublisher
	Directory    session.ServiceDirectory
	Notifier     Notifier

	// Hooks is optional
	Hooks HookTrigger

	// Metrics defaults to a fresh registry
	Metrics *metrics.Metrics

	// Clock defaults to the real clock
	Clock clockwork.Clock

	Logger zerolog.Logger

	// UID is exported as the session owner; defaults to the current user
	UID int

	// ConfigDirs are searched for environment scripts; derived from the
	// environment when nil
	ConfigDirs []string
}

// Sequencer is the session state machine. A Sequencer runs once.
type Sequencer struct {
	cfg        *config.Config
	runner     runner.Runner
	env        environ.Environment
	sourcer    bootstrap.FragmentSourcer
	bootstrap  ConfigBootstrapper
	publisher  session.PropertyPublisher
	directory  session.ServiceDirectory
	notifier   Notifier
	hooks      HookTrigger
	metrics    *metrics.Metrics
	clock      clockwork.Clock
	logger     zerolog.Logger
	configDirs []string

	markers     session.Markers
	state       State
	transitions []State

	locked    bool
	exported  bool
	published bool
	splash    runner.Handle
}

// New creates a Sequencer
func New(cfg *config.Config, deps Deps) *Sequencer {
	m := deps.Metrics
	if m == nil {
		m = metrics.NewMetrics()
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	uid := deps.UID
	if uid == 0 {
		uid = os.Getuid()
	}

	return &Sequencer{
		cfg:        cfg,
		runner:     deps.Runner,
		env:        deps.Env,
		sourcer:    deps.Sourcer,
		bootstrap:  deps.Bootstrapper,
		publisher:  deps.Publisher,
		directory:  deps.Directory,
		notifier:   deps.Notifier,
		hooks:      deps.Hooks,
		metrics:    m,
		clock:      clock,
		logger:     deps.Logger.With().Str("component", "sequencer").Logger(),
		configDirs: deps.ConfigDirs,
		markers: session.Markers{
			Desktop: cfg.Session.Desktop,
			Version: cfg.Session.ProtocolVersion,
			UID:     uid,
			Cursor:  cfg.Session.RootCursor,
		},
		state: Initializing,
	}
}

// State returns the current state
func (s *Sequencer) State() State {
	return s.state
}

// Transitions returns every state entered, in order
func (s *Sequencer) Transitions() []State {
	return append([]State(nil), s.transitions...)
}

// Run executes the whole sequence and returns the process exit status: 0 after
// a normal shutdown, 1 after a fatal failure.
func (s *Sequencer) Run(ctx context.Context) int {
	s.logger.Info().
		Str("desktop", s.cfg.Session.Desktop).
		Bool("wayland", s.cfg.Session.Wayland).
		Msg("Starting session")

	status := 0
	if err := s.startup(ctx); err != nil {
		s.fail(ctx, err)
		status = 1
	} else {
		s.shutdown(ctx)
	}

	s.enter(Terminated)
	s.finish(status)
	return status
}

func (s *Sequencer) startup(ctx context.Context) error {
	s.enter(Initializing)
	if err := s.step("capture_locked", s.captureLocked); err != nil {
		return err
	}

	s.enter(ConfiguringEnvironment)
	steps := []struct {
		name string
		fn   func() error
	}{
		{"ensure_config", func() error { return s.ensureConfig(ctx) }},
		{"startup_config", func() error { return s.runStartupConfig(ctx) }},
		{"scaling", s.setupScaling},
		{"cursor", func() error { return s.setupCursor(ctx) }},
		{"environment_scripts", func() error { return s.runEnvironmentScripts(ctx) }},
		{"data_dirs", s.setupDataDirs},
		{"export_markers", s.exportMarkers},
		{"publish_markers", func() error { return s.publishMarkers(ctx) }},
		{"font_dpi", func() error { return s.setupFontDPI(ctx) }},
		{"ghostscript", s.setupGhostscript},
		{"activation_sync", func() error { return s.syncActivation(ctx) }},
		{"startup_hooks", func() error { return s.triggerHooks(ctx, hooks.EventStartup, s.startupHookData()) }},
	}
	for _, st := range steps {
		if err := s.step(st.name, st.fn); err != nil {
			return err
		}
	}

	s.enter(StartingSplash)
	if err := s.step("splash", func() error { return s.startSplash(ctx) }); err != nil {
		return err
	}

	s.enter(StartingCore)
	if err := s.step("core_init", func() error { return s.startCore(ctx) }); err != nil {
		return err
	}
	if err := s.step("splash_stage", func() error { return s.notifySplash(ctx) }); err != nil {
		return err
	}

	s.enter(StartingSessionManager)
	return s.step("session_manager", func() error { return s.startSessionManager(ctx) })
}

func (s *Sequencer) shutdown(ctx context.Context) {
	s.enter(AwaitingShutdownPeers)
	s.step("wait_peers", func() error { return s.waitForPeers(ctx) })

	s.enter(CleaningUp)
	s.cleanup(ctx, 0)
}

// cleanup withdraws everything the session published. It also runs after a
// fatal failure so markers never outlive the session. A stop signal has
// already cancelled ctx by now, so cleanup runs detached from it.
func (s *Sequencer) cleanup(ctx context.Context, status int) {
	ctx = context.WithoutCancel(ctx)

	s.step("kill_splash", s.killSplash)
	if status == 0 {
		s.step("core_shutdown", func() error { return s.shutdownCore(ctx) })
	}
	s.step("unexport_markers", s.unexportMarkers)
	s.step("withdraw_markers", func() error { return s.withdrawMarkers(ctx) })
	s.step("shutdown_hooks", func() error {
		return s.triggerHooks(ctx, hooks.EventShutdown, map[string]interface{}{"status": status})
	})
}

func (s *Sequencer) fail(ctx context.Context, err error) {
	message := "sessionboot: " + err.Error() + "\n"
	var fatal *FatalError
	if errors.As(err, &fatal) && fatal.Message != "" {
		message = fatal.Message
	}

	s.logger.Error().Err(err).Str("state", s.state.String()).Msg("Session startup failed")

	if s.notifier != nil {
		if nerr := s.notifier.Notify(ctx, message); nerr != nil {
			s.logger.Warn().Err(nerr).Msg("Could not show failure message")
		}
	}
	s.cleanup(ctx, 1)
}

func (s *Sequencer) finish(status int) {
	s.metrics.ExitStatus.Set(float64(status))

	if s.cfg.Metrics.Enabled && s.cfg.Metrics.Textfile != "" {
		if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
			s.logger.Warn().Err(err).Msg("Could not write metrics")
		}
	}

	s.logger.Info().Int("status", status).Msg("Session finished")
}

func (s *Sequencer) enter(state State) {
	s.logger.Debug().Str("from", s.state.String()).Str("to", state.String()).Msg("State transition")
	s.state = state
	s.transitions = append(s.transitions, state)
	s.metrics.StateTransitionsTotal.WithLabelValues(state.String()).Inc()
	s.metrics.SessionState.Set(float64(state))
}

// step runs fn and records its outcome. Only a *FatalError is returned;
// any other error is logged and swallowed.
func (s *Sequencer) step(name string, fn func() error) error {
	start := s.clock.Now()
	err := fn()
	s.metrics.StepDuration.WithLabelValues(name).Observe(s.clock.Since(start).Seconds())

	var fatal *FatalError
	switch {
	case err == nil:
		s.metrics.StepsTotal.WithLabelValues(name, metrics.OutcomeOK).Inc()
		s.logger.Debug().Str("step", name).Msg("Step done")
		return nil
	case errors.Is(err, errSkipped):
		s.metrics.StepsTotal.WithLabelValues(name, metrics.OutcomeSkipped).Inc()
		return nil
	case errors.As(err, &fatal):
		s.metrics.StepsTotal.WithLabelValues(name, metrics.OutcomeFatal).Inc()
		return err
	default:
		s.metrics.StepsTotal.WithLabelValues(name, metrics.OutcomeFailed).Inc()
		s.logger.Warn().Err(err).Str("step", name).Msg("Step failed, continuing")
		return nil
	}
}
