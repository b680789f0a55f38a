package cli

import (
	"fmt"
	"time"

	"github.com/harun/sessionboot/internal/lifecycle"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Long:  `Show whether a session currently holds the instance lock in the state directory.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	status, err := lifecycle.GetStatus(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to read session status: %w", err)
	}

	out := cmd.OutOrStdout()
	if !status.Running {
		fmt.Fprintln(out, "Status: stopped")
		return nil
	}

	fmt.Fprintln(out, "Status: running")
	if status.PID != 0 {
		fmt.Fprintf(out, "PID: %d\n", status.PID)
	}
	if status.Uptime > 0 {
		fmt.Fprintf(out, "Uptime: %s\n", formatDuration(status.Uptime))
	}
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
