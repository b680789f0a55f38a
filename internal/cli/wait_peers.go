package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harun/sessionboot/internal/config"
	"github.com/harun/sessionboot/internal/sequencer"
	"github.com/harun/sessionboot/pkg/session"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

var waitPeersTimeout int

var waitPeersCmd = &cobra.Command{
	Use:   "wait-peers",
	Short: "Wait for crash handlers to exit",
	Long: `Poll the session bus for crash handler instances until none remain. Once the
timeout has elapsed every remaining instance is asked to quit and the command
returns.`,
	RunE: runWaitPeers,
}

func init() {
	waitPeersCmd.Flags().IntVar(&waitPeersTimeout, "timeout", -1, "timeout in seconds (default from config)")
	rootCmd.AddCommand(waitPeersCmd)
}

func runWaitPeers(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if waitPeersTimeout >= 0 {
		cfg.CrashHandlers.Timeout = waitPeersTimeout
	}
	if errs := config.NewValidator().ValidateCrashHandlers(cfg.CrashHandlers); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}

	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ch := cfg.CrashHandlers
	result, err := sequencer.WaitForShutdownPeers(ctx, session.NewDBus(), clockwork.NewRealClock(), sequencer.PeerWaitConfig{
		Enabled:      true,
		Timeout:      ch.TimeoutDuration(),
		PollInterval: ch.PollDuration(),
		Prefix:       ch.ServicePrefix,
		QuitPath:     ch.QuitPath,
		QuitMethod:   ch.QuitMethod,
	}, log.GetZerolog())
	if err != nil {
		return fmt.Errorf("failed to wait for crash handlers: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(result.Quit) == 0 {
		fmt.Fprintf(out, "No crash handlers running (waited %s)\n", formatDuration(result.Waited))
		return nil
	}
	for _, service := range result.Quit {
		fmt.Fprintf(out, "Asked %s to quit\n", service)
	}
	return nil
}
