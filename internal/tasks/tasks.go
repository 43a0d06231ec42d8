// package tasks implements the genre-sorting sync pipeline.
//
// The core abstraction is SyncEngine, which polls the inbox playlist, removes
// tracks that left the inbox from the genre playlists, and routes newly-seen
// tracks into per-genre playlists via the classifier and mutation gates.
// Operations emit progress updates via channels for non-blocking status
// reporting to the CLI layer.
package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/services"
	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
	"github.com/charmbracelet/log"
)

// Counters accumulates sync statistics across cycles. Safe for concurrent use.
type Counters struct {
	Cycles           atomic.Int64 // completed sync cycles
	CycleFailures    atomic.Int64 // cycles aborted by a fetch failure
	Classified       atomic.Int64 // successful prediction API calls
	CacheHits        atomic.Int64 // predictions served from the cache
	Routed           atomic.Int64 // tracks added to target playlists
	Removed          atomic.Int64 // tracks removed from target playlists
	TargetsCreated   atomic.Int64 // target playlists created
	TaskFailures     atomic.Int64 // classify-and-route tasks that failed
	SkippedNoPreview atomic.Int64 // tracks skipped for lacking a preview URL
}

// Snapshot returns the current counter values for display.
func (c *Counters) Snapshot() map[string]int64 {
	return map[string]int64{
		"cycles":             c.Cycles.Load(),
		"cycle_failures":     c.CycleFailures.Load(),
		"classified":         c.Classified.Load(),
		"cache_hits":         c.CacheHits.Load(),
		"routed":             c.Routed.Load(),
		"removed":            c.Removed.Load(),
		"targets_created":    c.TargetsCreated.Load(),
		"task_failures":      c.TaskFailures.Load(),
		"skipped_no_preview": c.SkippedNoPreview.Load(),
	}
}

// EngineOpts contains configuration for the sync engine.
type EngineOpts struct {
	InboxPlaylistID  string        // Source playlist whose contents drive classification
	PollInterval     time.Duration // Sleep between cycles (default: 5s)
	PlaylistPageSize int           // Page size for playlist listings (default: 50)
	TrackPageSize    int           // Page size for track listings (default: 100)
	ClassifyCapacity int64         // Classifier gate capacity (default: 1)
	MutateCapacity   int64         // Mutation gate capacity (default: 1)
	MutationDelay    time.Duration // Pacing between mutations (default: 750ms)
	IgnoredGenres    []string      // Labels never routed, matched after normalization
}

// SyncEngine drives the poll/reconcile/classify/route cycle.
//
// The engine owns the snapshot of the inbox as seen at the end of the previous
// cycle and the set of in-flight routing tasks. Everything else is cycle-local.
type SyncEngine struct {
	library    services.Library
	resolver   *TargetResolver
	classifier *ClassifierGate
	mutator    *MutationGate
	naming     *TargetNaming
	opts       EngineOpts
	ignored    map[string]struct{}
	logger     *log.Logger
	counters   *Counters
	progress   chan<- ProgressUpdate

	ownerID  string
	snapshot map[string]struct{} // inbox track ids seen last cycle
	tasks    sync.WaitGroup
}

// NewSyncEngine creates a SyncEngine over the given clients. The prediction
// cache may be nil. Progress may be nil when no UI consumes updates.
func NewSyncEngine(library services.Library, classifier services.GenreClassifier, naming *TargetNaming, cache PredictionCache, opts EngineOpts, logger *log.Logger, progress chan<- ProgressUpdate) *SyncEngine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.PlaylistPageSize <= 0 {
		opts.PlaylistPageSize = 50
	}
	if opts.TrackPageSize <= 0 {
		opts.TrackPageSize = 100
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	counters := &Counters{}

	ignored := make(map[string]struct{}, len(opts.IgnoredGenres))
	for _, genre := range opts.IgnoredGenres {
		ignored[NormalizeLabel(genre)] = struct{}{}
	}

	e := &SyncEngine{
		library:    library,
		resolver:   NewTargetResolver(library, naming.Template(), opts.PlaylistPageSize, opts.TrackPageSize),
		classifier: NewClassifierGate(classifier, opts.ClassifyCapacity, cache, logger, counters),
		naming:     naming,
		opts:       opts,
		ignored:    ignored,
		logger:     logger,
		counters:   counters,
		progress:   progress,
		snapshot:   make(map[string]struct{}),
	}

	// The mutation gate needs the owner id, resolved lazily on the first cycle.
	e.mutator = NewMutationGate(library, naming, "", opts.MutateCapacity, opts.MutationDelay, logger, counters)

	return e
}

// Counters exposes the engine's statistics.
func (e *SyncEngine) Counters() *Counters {
	return e.counters
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks the cycle.
func (e *SyncEngine) sendProgress(update ProgressUpdate) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- update:
	default:
	}
}

// Run polls until ctx is cancelled. A failed cycle is logged and retried on
// the next tick; only cancellation stops the loop. In-flight routing tasks are
// drained before Run returns so no gate slot leaks.
func (e *SyncEngine) Run(ctx context.Context) error {
	defer e.tasks.Wait()

	for {
		if err := e.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.counters.CycleFailures.Add(1)
			e.logger.Error("sync cycle failed", "err", err)
		}

		e.sendProgress(sleepingUpdate(e.counters.Cycles.Load()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.opts.PollInterval):
		}
	}
}

// RunCycle performs exactly one fetch/reconcile/dispatch pass.
func (e *SyncEngine) RunCycle(ctx context.Context) error {
	cycle := e.counters.Cycles.Load() + 1

	if e.ownerID == "" {
		user, err := e.library.CurrentUser(ctx)
		if err != nil {
			return err
		}
		e.ownerID = user.ID
		e.mutator.ownerID = user.ID
	}

	// Fetching
	e.sendProgress(fetchingUpdate(cycle))
	inbox, err := fetchAll(ctx, e.opts.TrackPageSize, func(ctx context.Context, limit, offset int) ([]services.Track, error) {
		return e.library.PlaylistTracks(ctx, e.opts.InboxPlaylistID, limit, offset)
	})
	if err != nil {
		return err
	}

	// Reconciling
	targets, members, err := e.resolver.Resolve(ctx, e.ownerID)
	if err != nil {
		return err
	}
	e.sendProgress(reconcilingUpdate(cycle, len(targets)))

	state := newCycleState(targets, members, inbox)
	e.reconcile(ctx, cycle, state, members)

	// Dispatching
	dispatched := 0
	for _, track := range inbox {
		if state.InAnyTarget(track.ID) {
			continue
		}
		if _, seen := e.snapshot[track.ID]; seen {
			continue
		}
		if track.PreviewURL == "" {
			// Re-evaluated next cycle: the track stays out of the snapshot
			// until it gains a preview or leaves the inbox.
			e.counters.SkippedNoPreview.Add(1)
			e.logger.Debug("skipping track without preview", "track", track.ID, "name", track.Name)
			continue
		}

		e.tasks.Add(1)
		go e.classifyAndRoute(ctx, cycle, state, track)
		dispatched++
	}
	e.sendProgress(dispatchingUpdate(cycle, dispatched))

	// Replace the snapshot wholesale; it records "seen", not "successfully
	// classified", so a track whose classification fails is not re-dispatched.
	snapshot := make(map[string]struct{}, len(inbox))
	for _, track := range inbox {
		if track.PreviewURL == "" {
			continue
		}
		snapshot[track.ID] = struct{}{}
	}
	e.snapshot = snapshot

	e.counters.Cycles.Add(1)
	e.logger.Info("cycle complete", "cycle", cycle, "inbox", len(inbox), "targets", len(targets), "dispatched", dispatched)
	return nil
}

// reconcile removes from every target playlist the tracks that are no longer
// in the inbox. Always completes before any new-item dispatch begins.
func (e *SyncEngine) reconcile(ctx context.Context, cycle int64, state *cycleState, members map[string][]services.Track) {
	for playlistID, tracks := range members {
		var toRemove []services.Track
		for _, tr := range tracks {
			if !state.InSource(tr.ID) {
				toRemove = append(toRemove, tr)
			}
		}

		if len(toRemove) == 0 {
			continue
		}

		if err := e.mutator.RemoveTracks(ctx, state, playlistID, toRemove); err != nil {
			e.counters.TaskFailures.Add(1)
			e.logger.Error("failed to remove tracks", "playlist", playlistID, "count", len(toRemove), "err", err)
			continue
		}

		e.sendProgress(removedUpdate(cycle, playlistID, len(toRemove)))
		e.logger.Info("removed tracks no longer in inbox", "playlist", playlistID, "count", len(toRemove))
	}
}

// classifyAndRoute is the per-track task body: classify through the classifier
// gate, then route into one target per confident genre through the mutation
// gate. All failures are caught, logged with the track identity, and counted;
// they never cancel sibling tasks or the sync loop.
func (e *SyncEngine) classifyAndRoute(ctx context.Context, cycle int64, state *cycleState, track services.Track) {
	defer e.tasks.Done()

	taskID := shared.GenerateID()
	logger := shared.WithLogger(e.logger, "task", taskID, "track", track.ID, "name", track.Name)

	e.sendProgress(classifyingUpdate(cycle, track))

	genres, err := e.classifier.Classify(ctx, track)
	if err != nil {
		e.counters.TaskFailures.Add(1)
		logger.Error("classification failed", "err", err)
		return
	}

	for genre, confidence := range genres {
		label := NormalizeLabel(genre)
		if label == "" || confidence <= 0 {
			continue
		}
		if _, ignored := e.ignored[label]; ignored {
			continue
		}

		target, err := e.mutator.EnsureTarget(ctx, state, label)
		if err != nil {
			e.counters.TaskFailures.Add(1)
			logger.Error("failed to ensure target playlist", "genre", label, "err", err)
			continue
		}

		if err := e.mutator.AddTrack(ctx, state, target, track); err != nil {
			e.counters.TaskFailures.Add(1)
			logger.Error("failed to add track", "genre", label, "playlist", target.ID, "err", err)
			continue
		}

		e.sendProgress(routedUpdate(cycle, track, label, confidence))
		logger.Info("routed track", "genre", label, "playlist", target.ID, "confidence", confidence)
	}
}
