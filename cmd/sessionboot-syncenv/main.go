// Command sessionboot-syncenv copies its environment into the session bus
// activation environment. sessionboot runs it when
// dbus-update-activation-environment is not installed.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/harun/sessionboot/internal/config"
	"github.com/harun/sessionboot/internal/logger"
	"github.com/harun/sessionboot/pkg/session"
)

func main() {
	// An unreadable config must not block the sync; the defaults still log.
	cfg, err := config.Load("")
	if err != nil {
		cfg = config.DefaultConfig()
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	zl := log.With().Str("component", "syncenv").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	vars := session.ActivationVars(os.Environ())
	if err := session.NewDBus().UpdateActivationEnvironment(ctx, vars); err != nil {
		zl.Error().Err(err).Msg("Failed to update activation environment")
		log.Close()
		os.Exit(1)
	}

	zl.Debug().Int("variables", len(vars)).Msg("Activation environment updated")
}

// newLogger logs to the console only; the log file belongs to the running
// sessionboot.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		Console:   true,
		Pretty:    true,
		Redaction: cfg.Logging.Redaction,
	})
}
