package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Classifier.Mode != "fast" {
			t.Errorf("expected classifier mode fast, got %s", config.Classifier.Mode)
		}

		if config.Sync.PollIntervalSecs != 5 {
			t.Errorf("expected poll interval 5, got %d", config.Sync.PollIntervalSecs)
		}

		if config.Sync.MutationDelayMS != 750 {
			t.Errorf("expected mutation delay 750, got %d", config.Sync.MutationDelayMS)
		}

		if config.Playlists.NameTemplate != "Sorted: {genre}" {
			t.Errorf("expected default name template, got %s", config.Playlists.NameTemplate)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Playlists.NameTemplate != defaultConfig.Playlists.NameTemplate {
			t.Errorf("created config name template doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected missing config error, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		config := DefaultConfig()
		config.Sync.PlaylistID = "inbox"
		return config
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{
			name:    "invalid mode",
			mutate:  func(c *Config) { c.Classifier.Mode = "turbo" },
			wantErr: ErrInvalidMode,
		},
		{
			name:    "template without slot",
			mutate:  func(c *Config) { c.Playlists.NameTemplate = "Sorted" },
			wantErr: ErrInvalidTemplate,
		},
		{
			name:    "template with two slots",
			mutate:  func(c *Config) { c.Playlists.NameTemplate = "{genre}{genre}" },
			wantErr: ErrInvalidTemplate,
		},
		{
			name:    "missing inbox playlist",
			mutate:  func(c *Config) { c.Sync.PlaylistID = "" },
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
