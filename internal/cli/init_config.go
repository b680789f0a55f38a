package cli

import (
	"fmt"
	"os"

	"github.com/harun/sessionboot/internal/config"
	"github.com/spf13/cobra"
)

var (
	initInteractive bool
	initForce       bool
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a configuration file",
	Long: `Write a configuration file with the default settings, or with the answers
given to an interactive wizard when --interactive is set.`,
	RunE: runInitConfig,
}

func init() {
	initConfigCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "run the configuration wizard")
	initConfigCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(cfgFile)
	configPath := loader.GetConfigPath()

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", configPath)
	}

	cfg := config.DefaultConfig()
	if initInteractive {
		wizard := config.NewWizard(cmd.InOrStdin(), cmd.OutOrStdout())

		var err error
		cfg, err = wizard.Run()
		if err != nil {
			return fmt.Errorf("configuration failed: %w", err)
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Save configuration
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration saved to: %s\n", configPath)
	fmt.Fprintln(cmd.OutOrStdout(), "You can now start the session with: sessionboot start")

	return nil
}
