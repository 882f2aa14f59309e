package main

import (
	"testing"
	"time"

	"github.com/telagraphic/sfx-board/config"
)

func TestConfigValidation(t *testing.T) {
	valid := config.Config{
		Server: config.ServerConfig{
			Addr:      ":8777",
			AssetRoot: ".",
			Manifest:  "soundclips.json",
		},
		Playback: config.PlaybackConfig{
			SampleRate:    44100,
			LoadTimeout:   10 * time.Second,
			FinishedFlash: time.Second,
			ProbeTTL:      30 * time.Second,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*config.Config) {},
			wantErr: false,
		},
		{
			name:    "missing listen address",
			mutate:  func(c *config.Config) { c.Server.Addr = "" },
			wantErr: true,
		},
		{
			name:    "missing manifest",
			mutate:  func(c *config.Config) { c.Server.Manifest = "" },
			wantErr: true,
		},
		{
			name:    "missing asset root",
			mutate:  func(c *config.Config) { c.Server.AssetRoot = "" },
			wantErr: true,
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *config.Config) { c.Playback.SampleRate = 0 },
			wantErr: true,
		},
		{
			name:    "zero load timeout",
			mutate:  func(c *config.Config) { c.Playback.LoadTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero finished flash",
			mutate:  func(c *config.Config) { c.Playback.FinishedFlash = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
