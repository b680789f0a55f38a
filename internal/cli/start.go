package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/harun/sessionboot/internal/config"
	"github.com/harun/sessionboot/internal/lifecycle"
	"github.com/harun/sessionboot/internal/metrics"
	"github.com/harun/sessionboot/internal/sequencer"
	"github.com/harun/sessionboot/pkg/bootstrap"
	"github.com/harun/sessionboot/pkg/environ"
	"github.com/harun/sessionboot/pkg/hooks"
	"github.com/harun/sessionboot/pkg/runner"
	"github.com/harun/sessionboot/pkg/session"
	"github.com/harun/sessionboot/pkg/sourcer"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var startWayland bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the desktop session",
	Long: `Start the desktop session and block until it ends.
The process exit status is the session's: 0 after a normal shutdown,
1 when a required component could not be started.`,
	SilenceUsage: true,
	RunE:         runStart,
}

func init() {
	startCmd.Flags().BoolVar(&startWayland, "wayland", false, "start a Wayland session")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if startWayland {
		cfg.Session.Wayland = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer log.Close()

	zl := log.With().Str("run_id", uuid.New().String()).Logger()

	inst, err := lifecycle.Acquire(cfg.StateDir, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := inst.Release(); err != nil {
			zl.Warn().Err(err).Msg("Failed to release instance lock")
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seq, err := newSequencer(cfg, zl, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if status := seq.Run(ctx); status != 0 {
		return &ExitError{Code: status}
	}
	return nil
}

// newSequencer wires the real collaborators against the process environment
func newSequencer(cfg *config.Config, logger zerolog.Logger, stderr io.Writer) (*sequencer.Sequencer, error) {
	env := environ.NewProcess()
	m := metrics.NewMetrics()
	run := metrics.InstrumentRunner(runner.NewExec(env, logger), m)

	src := sourcer.New(sourcer.Config{
		Shell:     cfg.Tools.Shell,
		Bootstrap: cfg.Tools.SourceBootstrap,
		Runner:    run,
		Env:       env,
		Logger:    logger,
	})

	boot := bootstrap.New(bootstrap.Config{
		Normalizer: cfg.Tools.Normalizer,
		Runner:     run,
		Env:        env,
		Sourcer:    src,
		Logger:     logger,
	})

	var publisher session.PropertyPublisher = session.NopPublisher{}
	if !cfg.Session.Wayland {
		publisher = session.NewX11Publisher(run, cfg.Tools.Xprop, cfg.Tools.Xsetroot)
	}

	hookManager, err := hooks.NewManager(hooks.Config{
		Enabled: cfg.Hooks.Enabled,
		Hooks:   hookList(cfg.Hooks),
		Shell:   cfg.Tools.Shell,
		Env:     env,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure hooks: %w", err)
	}

	return sequencer.New(cfg, sequencer.Deps{
		Runner:       run,
		Env:          env,
		Sourcer:      src,
		Bootstrapper: boot,
		Publisher:    publisher,
		Directory:    session.NewDBus(),
		Notifier:     sequencer.NewXMessage(run, cfg.Tools.MessageBox, stderr),
		Hooks:        hookManager,
		Metrics:      m,
		Logger:       logger,
	}), nil
}

func hookList(cfg config.HooksConfig) []hooks.Hook {
	list := make([]hooks.Hook, 0, len(cfg.Entries))
	for _, entry := range cfg.Entries {
		list = append(list, hooks.Hook{
			ID:      entry.ID,
			Event:   entry.Event,
			Script:  entry.Script,
			Timeout: secondsDuration(entry.Timeout),
			Enabled: entry.Enabled,
		})
	}
	return list
}
