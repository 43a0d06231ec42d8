package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/services"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// PredictionCache caches classifier output keyed by track ID.
// Implemented by repositories.PredictionRepository; nil disables caching.
type PredictionCache interface {
	Get(trackID string) (map[string]float64, bool, error)
	Put(trackID string, genres map[string]float64) error
}

// ClassifierGate bounds how many prediction calls are in flight at once so
// classification throughput is governed independently of mutation pacing.
type ClassifierGate struct {
	sem      *semaphore.Weighted
	svc      services.GenreClassifier
	cache    PredictionCache
	logger   *log.Logger
	counters *Counters
}

// NewClassifierGate wraps the classifier behind a weighted semaphore of the
// given capacity. Capacity defaults to 1.
func NewClassifierGate(svc services.GenreClassifier, capacity int64, cache PredictionCache, logger *log.Logger, counters *Counters) *ClassifierGate {
	if capacity <= 0 {
		capacity = 1
	}

	return &ClassifierGate{
		sem:      semaphore.NewWeighted(capacity),
		svc:      svc,
		cache:    cache,
		logger:   logger,
		counters: counters,
	}
}

// Classify returns genre confidences for a track's preview. The caller filters
// out tracks without a preview URL before reaching the gate. The semaphore
// slot is held only for the prediction call itself, never into routing.
func (g *ClassifierGate) Classify(ctx context.Context, track services.Track) (map[string]float64, error) {
	if g.cache != nil {
		genres, ok, err := g.cache.Get(track.ID)
		if err != nil {
			g.logger.Warn("prediction cache read failed", "track", track.ID, "err", err)
		} else if ok {
			g.counters.CacheHits.Add(1)
			return genres, nil
		}
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	genres, err := g.svc.Predict(ctx, track.PreviewURL)
	g.sem.Release(1)

	if err != nil {
		return nil, err
	}

	g.counters.Classified.Add(1)

	if g.cache != nil {
		if err := g.cache.Put(track.ID, genres); err != nil {
			g.logger.Warn("prediction cache write failed", "track", track.ID, "err", err)
		}
	}

	return genres, nil
}

// MutationGate bounds how many playlist mutations are in flight at once and
// paces each mutating call to stay under the playlist service's rate limits.
type MutationGate struct {
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	library  services.Library
	naming   *TargetNaming
	ownerID  string
	creating singleflight.Group
	mu       sync.Mutex
	created  map[string]services.PlaylistRef // targets created by this gate, across cycles
	logger   *log.Logger
	counters *Counters
}

// NewMutationGate wraps playlist mutations behind a weighted semaphore of the
// given capacity, spacing consecutive mutations by delay. Capacity defaults to
// 1 and delay to 750ms.
func NewMutationGate(library services.Library, naming *TargetNaming, ownerID string, capacity int64, delay time.Duration, logger *log.Logger, counters *Counters) *MutationGate {
	if capacity <= 0 {
		capacity = 1
	}
	if delay <= 0 {
		delay = 750 * time.Millisecond
	}

	return &MutationGate{
		sem:      semaphore.NewWeighted(capacity),
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
		library:  library,
		naming:   naming,
		ownerID:  ownerID,
		created:  make(map[string]services.PlaylistRef),
		logger:   logger,
		counters: counters,
	}
}

// acquire takes one mutation slot and waits out the pacing interval.
// The returned release func must be called when the mutation completes.
func (g *MutationGate) acquire(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		g.sem.Release(1)
		return nil, err
	}

	return func() { g.sem.Release(1) }, nil
}

// createdTarget looks up a target this gate created in any cycle.
func (g *MutationGate) createdTarget(label string) (services.PlaylistRef, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pl, ok := g.created[label]
	return pl, ok
}

func (g *MutationGate) rememberTarget(label string, pl services.PlaylistRef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created[label] = pl
}

// EnsureTarget returns the target playlist for a genre label, creating it from
// the configured templates when absent. Concurrent calls for the same missing
// label are collapsed into a single create: the semaphore slot alone does not
// prevent a check-then-create race between two tasks. The gate keeps its own
// record of created targets because cycle state is rebuilt every cycle: a task
// outliving its cycle may commit a create after the next cycle's resolve, and
// that cycle's state would otherwise miss the playlist and create a duplicate.
func (g *MutationGate) EnsureTarget(ctx context.Context, state *cycleState, label string) (services.PlaylistRef, error) {
	if pl, ok := state.Target(label); ok {
		return pl, nil
	}

	v, err, _ := g.creating.Do(label, func() (any, error) {
		// Re-check inside the flight: a collapsed caller may have created it.
		if pl, ok := state.Target(label); ok {
			return pl, nil
		}

		if pl, ok := g.createdTarget(label); ok {
			state.PutTarget(label, pl)
			return pl, nil
		}

		release, err := g.acquire(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		created, err := g.library.CreatePlaylist(ctx, g.ownerID,
			g.naming.NameFor(label),
			g.naming.DescriptionFor(label),
			g.naming.PublicFor(label),
		)
		if err != nil {
			return nil, err
		}

		state.PutTarget(label, *created)
		g.rememberTarget(label, *created)
		g.counters.TargetsCreated.Add(1)
		g.logger.Info("created target playlist", "genre", label, "playlist", created.ID, "name", created.Name)
		return *created, nil
	})
	if err != nil {
		return services.PlaylistRef{}, err
	}

	return v.(services.PlaylistRef), nil
}

// AddTrack adds a track to a target playlist. No-op when the track is already
// a member per the cycle's membership view, or when the track has left the
// inbox since this cycle's fetch (a still-running task must not undo a removal).
func (g *MutationGate) AddTrack(ctx context.Context, state *cycleState, playlist services.PlaylistRef, track services.Track) error {
	if state.HasMember(playlist.ID, track.ID) {
		return nil
	}

	if !state.InSource(track.ID) {
		g.logger.Debug("skipping add, track left the inbox", "track", track.ID, "playlist", playlist.ID)
		return nil
	}

	release, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := g.library.AddTracks(ctx, playlist.ID, []string{track.URI}); err != nil {
		return err
	}

	state.AddMember(playlist.ID, track)
	g.counters.Routed.Add(1)
	return nil
}

// RemoveTracks removes the given tracks from a target playlist. Callers skip
// empty batches; the guard here just avoids a wasted network call.
func (g *MutationGate) RemoveTracks(ctx context.Context, state *cycleState, playlistID string, tracks []services.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	release, err := g.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	uris := make([]string, 0, len(tracks))
	for _, tr := range tracks {
		uris = append(uris, tr.URI)
	}

	if err := g.library.RemoveTracks(ctx, playlistID, uris); err != nil {
		return err
	}

	state.RemoveMembers(playlistID, tracks)
	g.counters.Removed.Add(int64(len(tracks)))
	return nil
}
