package main

import (
	"context"
	"os"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config, err := resolveConfig("config.toml")
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "genre-sorter",
		Usage:    "Sort a Spotify inbox playlist into per-genre playlists",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// resolveConfig loads the config file at path, falling back to the embedded
// defaults when no file exists. A file that exists but fails to parse is an
// error rather than a silent fallback to defaults.
func resolveConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(path)
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write an example config.toml to get started",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
