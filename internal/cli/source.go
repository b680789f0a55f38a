package cli

import (
	"fmt"

	"github.com/harun/sessionboot/pkg/environ"
	"github.com/harun/sessionboot/pkg/runner"
	"github.com/harun/sessionboot/pkg/sourcer"
	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source FILE...",
	Short: "Source environment fragments and show what changed",
	Long: `Source shell fragments the way the session does and print every variable
whose value changed, one KEY=VALUE per line. Missing or unreadable files are
skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSource,
}

func init() {
	rootCmd.AddCommand(sourceCmd)
}

func runSource(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	env := environ.NewProcess()
	src := sourcer.New(sourcer.Config{
		Shell:     cfg.Tools.Shell,
		Bootstrap: cfg.Tools.SourceBootstrap,
		Runner:    runner.NewExec(env, log.GetZerolog(), runner.WithOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr())),
		Env:       env,
		Logger:    log.GetZerolog(),
	})

	changes, err := src.Source(cmd.Context(), args)
	if err != nil {
		return fmt.Errorf("failed to source fragments: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, change := range changes {
		fmt.Fprintf(out, "%s=%s\n", change.Key, change.Value)
	}
	return nil
}
