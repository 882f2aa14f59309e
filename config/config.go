package config

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig `mapstructure:"server"`

	// Playback configuration
	Playback PlaybackConfig `mapstructure:"playback"`

	// Clip import surface configuration
	Import ImportConfig `mapstructure:"import"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	AssetRoot     string `mapstructure:"asset_root"`
	Manifest      string `mapstructure:"manifest"`
	WatchManifest bool   `mapstructure:"watch_manifest"`
}

// PlaybackConfig holds audio playback configuration
type PlaybackConfig struct {
	SampleRate    int           `mapstructure:"sample_rate"`
	LoadTimeout   time.Duration `mapstructure:"load_timeout"`
	FinishedFlash time.Duration `mapstructure:"finished_flash"`
	ProbeTTL      time.Duration `mapstructure:"probe_ttl"`
}

// ImportConfig holds configuration for the upload/YouTube import surface
type ImportConfig struct {
	SimulateDuration time.Duration `mapstructure:"simulate_duration"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	// Set defaults
	viper.SetDefault("server.addr", ":8777")
	viper.SetDefault("server.asset_root", ".")
	viper.SetDefault("server.manifest", "soundclips.json")
	viper.SetDefault("server.watch_manifest", true)
	viper.SetDefault("playback.sample_rate", 44100)
	viper.SetDefault("playback.load_timeout", "10s")
	viper.SetDefault("playback.finished_flash", "1s")
	viper.SetDefault("playback.probe_ttl", "30s")
	viper.SetDefault("import.simulate_duration", "3s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Read config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.sfx-board")
	viper.AddConfigPath("/etc/sfx-board")

	// Allow environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("SFXBOARD")

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return &ConfigError{Field: "server.addr", Message: "listen address is required"}
	}
	if c.Server.Manifest == "" {
		return &ConfigError{Field: "server.manifest", Message: "manifest location is required"}
	}
	if c.Server.AssetRoot == "" {
		return &ConfigError{Field: "server.asset_root", Message: "asset root is required"}
	}
	if c.Playback.SampleRate <= 0 {
		return &ConfigError{Field: "playback.sample_rate", Message: "sample rate must be positive"}
	}
	if c.Playback.LoadTimeout <= 0 {
		return &ConfigError{Field: "playback.load_timeout", Message: "load timeout must be positive"}
	}
	if c.Playback.FinishedFlash <= 0 {
		return &ConfigError{Field: "playback.finished_flash", Message: "finished flash duration must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
