package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Classifier  ClassifierConfig  `toml:"classifier"`
	Sync        SyncConfig        `toml:"sync"`
	Playlists   PlaylistsConfig   `toml:"playlists"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	RedirectURI  string `toml:"redirect_uri"`
}

// ClassifierConfig contains genre-prediction API settings.
type ClassifierConfig struct {
	BaseURL string `toml:"base_url"`
	Mode    string `toml:"mode"` // "fast" or "best"
}

// SyncConfig contains the sync loop settings.
type SyncConfig struct {
	PlaylistID       string   `toml:"playlist_id"` // inbox playlist
	PollIntervalSecs int      `toml:"poll_interval_secs"`
	PlaylistPageSize int      `toml:"playlist_page_size"`
	TrackPageSize    int      `toml:"track_page_size"`
	ClassifyCapacity int64    `toml:"classify_capacity"`
	MutateCapacity   int64    `toml:"mutate_capacity"`
	MutationDelayMS  int      `toml:"mutation_delay_ms"`
	IgnoredGenres    []string `toml:"ignored_genres"`
}

// PlaylistsConfig contains templates and per-genre overrides for target playlists.
type PlaylistsConfig struct {
	NameTemplate        string            `toml:"name_template"`
	DescriptionTemplate string            `toml:"description_template"`
	Public              bool              `toml:"public"`
	Names               map[string]string `toml:"names"`
	Descriptions        map[string]string `toml:"descriptions"`
	Visibility          map[string]bool   `toml:"visibility"`
}

// DatabaseConfig contains the prediction cache database settings.
// An empty path disables the cache.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks startup-fatal configuration values: the classification mode,
// the name template wildcard, and the inbox playlist id.
func (c *Config) Validate() error {
	if c.Classifier.Mode != "fast" && c.Classifier.Mode != "best" {
		return fmt.Errorf("%w: %q (want \"fast\" or \"best\")", ErrInvalidMode, c.Classifier.Mode)
	}

	if strings.Count(c.Playlists.NameTemplate, "{genre}") != 1 {
		return fmt.Errorf("%w: %q must contain exactly one {genre} placeholder", ErrInvalidTemplate, c.Playlists.NameTemplate)
	}

	if c.Sync.PlaylistID == "" {
		return fmt.Errorf("%w: sync.playlist_id is required", ErrInvalidConfig)
	}

	return nil
}
