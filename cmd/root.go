package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/telagraphic/sfx-board/board"
	"github.com/telagraphic/sfx-board/config"
	"github.com/telagraphic/sfx-board/logger"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sfx-board",
	Short: "A self-hosted soundboard",
	Long: `sfx-board serves a browser soundboard for a directory of audio clips.

Clips are listed in a JSON manifest and loaded lazily on first use. The
board page forwards clicks (play/stop) and double-clicks (loop) to the
server, which plays audio on the host's output device and streams state
changes back to the page.`,
	RunE: runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Local flags for the server command
	rootCmd.Flags().StringP("addr", "a", ":8777", "listen address")
	rootCmd.Flags().StringP("asset-root", "r", ".", "directory holding audio clips")
	rootCmd.Flags().StringP("manifest", "m", "soundclips.json", "clip manifest path or URL")
	rootCmd.Flags().Bool("watch-manifest", true, "reload the catalog when the manifest changes")
	rootCmd.Flags().Duration("load-timeout", 10*time.Second, "bound on one clip load attempt")
	rootCmd.Flags().Duration("finished-flash", time.Second, "how long the finished cue lingers")
	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	viper.BindPFlag("server.addr", rootCmd.Flags().Lookup("addr"))
	viper.BindPFlag("server.asset_root", rootCmd.Flags().Lookup("asset-root"))
	viper.BindPFlag("server.manifest", rootCmd.Flags().Lookup("manifest"))
	viper.BindPFlag("server.watch_manifest", rootCmd.Flags().Lookup("watch-manifest"))
	viper.BindPFlag("playback.load_timeout", rootCmd.Flags().Lookup("load-timeout"))
	viper.BindPFlag("playback.finished_flash", rootCmd.Flags().Lookup("finished-flash"))
	viper.BindPFlag("logging.level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.Flags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}

// runServer starts the main application
func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	// Setup logging
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	// Create and start the board
	b := board.New(cfg)
	if err := b.Start(); err != nil {
		return fmt.Errorf("failed to start board: %w", err)
	}

	// Setup graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or error
	select {
	case sig := <-signalChan:
		fmt.Printf("\nReceived %s, shutting down gracefully...\n", sig)
	case err := <-b.Error():
		fmt.Printf("Error occurred: %v\n", err)
	}

	// Graceful shutdown
	if err := b.Stop(); err != nil {
		return fmt.Errorf("failed to stop board gracefully: %w", err)
	}

	return nil
}
