package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
)

func TestResolveConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		config, err := resolveConfig(filepath.Join(t.TempDir(), "config.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Classifier.Mode != "fast" {
			t.Errorf("expected default config, got mode %s", config.Classifier.Mode)
		}
	})

	t.Run("valid file is loaded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[classifier]\nmode = \"best\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := resolveConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Classifier.Mode != "best" {
			t.Errorf("expected mode best, got %s", config.Classifier.Mode)
		}
	})

	t.Run("malformed file is an error, not a silent fallback", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("classifier = [oops"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := resolveConfig(path)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected invalid config error, got %v", err)
		}
	})
}
