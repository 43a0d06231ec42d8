package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/repositories"
	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/services"
	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/tasks"
	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/ui"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	logger  *log.Logger
	output  io.Writer
	palette *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		logger:  opts.Logger,
		output:  opts.Output,
		palette: ui.NewPalette(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, runCommand, cycleCommand, targetsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// library builds and authenticates the Spotify client from configuration.
func (r *Runner) library(ctx context.Context) (*services.SpotifyService, error) {
	spotify, err := services.NewSpotifyService(map[string]string{
		"client_id":     r.config.Credentials.Spotify.ClientID,
		"client_secret": r.config.Credentials.Spotify.ClientSecret,
		"redirect_uri":  r.config.Credentials.Spotify.RedirectURI,
	})
	if err != nil {
		return nil, err
	}

	if err := spotify.Authenticate(ctx, map[string]string{
		"refresh_token": r.config.Credentials.Spotify.RefreshToken,
	}); err != nil {
		return nil, err
	}

	return spotify, nil
}

// engine wires the full sync pipeline from configuration.
// The returned cleanup func closes the prediction cache database, if any.
func (r *Runner) engine(ctx context.Context) (*tasks.SyncEngine, func(), error) {
	if err := r.config.Validate(); err != nil {
		return nil, nil, err
	}

	library, err := r.library(ctx)
	if err != nil {
		return nil, nil, err
	}

	classifier, err := services.NewClassifierService(r.config.Classifier.BaseURL, r.config.Classifier.Mode, nil)
	if err != nil {
		return nil, nil, err
	}

	naming, err := tasks.NewTargetNaming(r.config.Playlists)
	if err != nil {
		return nil, nil, err
	}

	var cache tasks.PredictionCache
	var db *sql.DB
	if r.config.Database.Path != "" {
		db, err = shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return nil, nil, err
		}

		repo := repositories.NewPredictionRepository(db)
		if err := repo.Migrate(); err != nil {
			db.Close()
			return nil, nil, err
		}
		cache = repo
	}

	cleanup := func() {
		if db != nil {
			db.Close()
		}
	}

	opts := tasks.EngineOpts{
		InboxPlaylistID:  r.config.Sync.PlaylistID,
		PollInterval:     time.Duration(r.config.Sync.PollIntervalSecs) * time.Second,
		PlaylistPageSize: r.config.Sync.PlaylistPageSize,
		TrackPageSize:    r.config.Sync.TrackPageSize,
		ClassifyCapacity: r.config.Sync.ClassifyCapacity,
		MutateCapacity:   r.config.Sync.MutateCapacity,
		MutationDelay:    time.Duration(r.config.Sync.MutationDelayMS) * time.Millisecond,
		IgnoredGenres:    r.config.Sync.IgnoredGenres,
	}

	return tasks.NewSyncEngine(library, classifier, naming, cache, opts, r.logger, nil), cleanup, nil
}

// Setup writes the example configuration file.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlainln("%s", r.palette.OK.Render(fmt.Sprintf("Wrote example config to %s", path)))
	r.writePlainln("%s", r.palette.Help.Render("Fill in Spotify credentials and sync.playlist_id, then run `genre-sorter run`."))
	return nil
}

// Run starts the sync loop until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	engine, cleanup, err := r.engine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting sync loop", "inbox", r.config.Sync.PlaylistID, "interval", r.config.Sync.PollIntervalSecs)

	err = engine.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	r.logger.Info("sync loop stopped", "counters", engine.Counters().Snapshot())
	return nil
}

// Cycle performs exactly one sync pass, for cron-style scheduling.
func (r *Runner) Cycle(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	engine, cleanup, err := r.engine(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := engine.RunCycle(ctx); err != nil {
		return err
	}

	return r.writeJSON(engine.Counters().Snapshot(), true)
}

// Targets resolves and prints the current genre target playlists.
func (r *Runner) Targets(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	library, err := r.library(ctx)
	if err != nil {
		return err
	}

	naming, err := tasks.NewTargetNaming(r.config.Playlists)
	if err != nil {
		return err
	}

	user, err := library.CurrentUser(ctx)
	if err != nil {
		return err
	}

	resolver := tasks.NewTargetResolver(library, naming.Template(), r.config.Sync.PlaylistPageSize, r.config.Sync.TrackPageSize)
	targets, members, err := resolver.Resolve(ctx, user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type targetInfo struct {
			Genre      string `json:"genre"`
			PlaylistID string `json:"playlist_id"`
			Name       string `json:"name"`
			Tracks     int    `json:"tracks"`
		}

		infos := make([]targetInfo, 0, len(targets))
		for genre, pl := range targets {
			infos = append(infos, targetInfo{
				Genre:      genre,
				PlaylistID: pl.ID,
				Name:       pl.Name,
				Tracks:     len(members[pl.ID]),
			})
		}
		return r.writeJSON(infos, true)
	}

	r.writePlainln("%s", r.palette.Title.Render(fmt.Sprintf("Genre targets for %s", user.DisplayName)))
	if len(targets) == 0 {
		r.writePlainln("%s", r.palette.Help.Render("No target playlists yet. They are created as tracks get classified."))
		return nil
	}

	for genre, pl := range targets {
		r.writePlainln("%s %s (%d tracks)", r.palette.OK.Render(genre), pl.Name, len(members[pl.ID]))
	}

	return nil
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable debug logging",
	}
}

func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run the sync loop until interrupted",
		Flags:  []cli.Flag{verboseFlag()},
		Action: r.Run,
	}
}

func cycleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "cycle",
		Usage:  "Run exactly one sync cycle and print counters",
		Flags:  []cli.Flag{verboseFlag()},
		Action: r.Cycle,
	}
}

func targetsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "targets",
		Usage: "List the resolved genre target playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print as JSON",
			},
		},
		Action: r.Targets,
	}
}
