package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/telagraphic/sfx-board/config"
	"github.com/telagraphic/sfx-board/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for managing and validating sfx-board configuration.",
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging for validation
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Validate configuration
		if err := cfg.Validate(); err != nil {
			slog.Error("Configuration validation failed", slog.Any("error", err))
			return err
		}

		fmt.Println("Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration values from file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Println("Current Configuration:")
		fmt.Printf("  Server:\n")
		fmt.Printf("    Addr: %s\n", cfg.Server.Addr)
		fmt.Printf("    Asset root: %s\n", cfg.Server.AssetRoot)
		fmt.Printf("    Manifest: %s\n", cfg.Server.Manifest)
		fmt.Printf("    Watch manifest: %t\n", cfg.Server.WatchManifest)
		fmt.Printf("  Playback:\n")
		fmt.Printf("    Sample rate: %d\n", cfg.Playback.SampleRate)
		fmt.Printf("    Load timeout: %s\n", cfg.Playback.LoadTimeout)
		fmt.Printf("    Finished flash: %s\n", cfg.Playback.FinishedFlash)
		fmt.Printf("    Probe TTL: %s\n", cfg.Playback.ProbeTTL)
		fmt.Printf("  Import:\n")
		fmt.Printf("    Simulate duration: %s\n", cfg.Import.SimulateDuration)
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level: %s\n", cfg.Logging.Level)
		fmt.Printf("    Format: %s\n", cfg.Logging.Format)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
