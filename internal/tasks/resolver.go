package tasks

import (
	"context"
	"sync"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/services"
)

// TargetResolver discovers the user's genre target playlists by matching
// playlist names against the configured template, and fetches their membership.
type TargetResolver struct {
	library          services.Library
	template         *NameTemplate
	playlistPageSize int
	trackPageSize    int
}

// NewTargetResolver creates a resolver over the given library client.
func NewTargetResolver(library services.Library, template *NameTemplate, playlistPageSize, trackPageSize int) *TargetResolver {
	return &TargetResolver{
		library:          library,
		template:         template,
		playlistPageSize: playlistPageSize,
		trackPageSize:    trackPageSize,
	}
}

// Resolve fetches all playlists owned by ownerID, keeps those whose name
// matches the genre template, and fetches each match's full track list.
// On duplicate labels the last match wins; configuration keeps names unique.
// An empty result is valid: no targets exist until the first track is routed.
func (r *TargetResolver) Resolve(ctx context.Context, ownerID string) (map[string]services.PlaylistRef, map[string][]services.Track, error) {
	playlists, err := fetchAll(ctx, r.playlistPageSize, func(ctx context.Context, limit, offset int) ([]services.PlaylistRef, error) {
		return r.library.UserPlaylists(ctx, limit, offset)
	})
	if err != nil {
		return nil, nil, err
	}

	targets := make(map[string]services.PlaylistRef)
	for _, pl := range playlists {
		if pl.OwnerID != ownerID {
			continue
		}

		label, ok := r.template.Extract(pl.Name)
		if !ok {
			continue
		}

		targets[label] = pl
	}

	members := make(map[string][]services.Track, len(targets))
	for _, pl := range targets {
		tracks, err := fetchAll(ctx, r.trackPageSize, func(ctx context.Context, limit, offset int) ([]services.Track, error) {
			return r.library.PlaylistTracks(ctx, pl.ID, limit, offset)
		})
		if err != nil {
			return nil, nil, err
		}
		members[pl.ID] = tracks
	}

	return targets, members, nil
}

// cycleState is the cycle-scoped view of the inbox and the target playlists.
//
// Populated once per cycle from the resolver and the inbox fetch, then updated
// in place by the mutation gate after each create or add, so routing tasks
// never re-fetch target membership. Discarded at the end of the cycle.
type cycleState struct {
	mu      sync.RWMutex
	targets map[string]services.PlaylistRef      // normalized label -> playlist
	members map[string]map[string]services.Track // playlist id -> track id -> track
	source  map[string]struct{}                  // inbox track ids from this cycle's fetch
}

func newCycleState(targets map[string]services.PlaylistRef, members map[string][]services.Track, source []services.Track) *cycleState {
	s := &cycleState{
		targets: make(map[string]services.PlaylistRef, len(targets)),
		members: make(map[string]map[string]services.Track, len(members)),
		source:  make(map[string]struct{}, len(source)),
	}

	for label, pl := range targets {
		s.targets[label] = pl
	}
	for id, tracks := range members {
		set := make(map[string]services.Track, len(tracks))
		for _, tr := range tracks {
			set[tr.ID] = tr
		}
		s.members[id] = set
	}
	for _, tr := range source {
		s.source[tr.ID] = struct{}{}
	}

	return s
}

// Target returns the playlist for a normalized genre label, if one exists.
func (s *cycleState) Target(label string) (services.PlaylistRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pl, ok := s.targets[label]
	return pl, ok
}

// PutTarget records a newly created target playlist.
func (s *cycleState) PutTarget(label string, pl services.PlaylistRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[label] = pl
	if s.members[pl.ID] == nil {
		s.members[pl.ID] = make(map[string]services.Track)
	}
}

// HasMember reports whether a track is already in the given target playlist.
func (s *cycleState) HasMember(playlistID, trackID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[playlistID][trackID]
	return ok
}

// AddMember records a successful add in the cycle's membership view.
func (s *cycleState) AddMember(playlistID string, track services.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[playlistID] == nil {
		s.members[playlistID] = make(map[string]services.Track)
	}
	s.members[playlistID][track.ID] = track
}

// RemoveMembers drops tracks from the cycle's membership view after a removal.
func (s *cycleState) RemoveMembers(playlistID string, tracks []services.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range tracks {
		delete(s.members[playlistID], tr.ID)
	}
}

// InSource reports whether a track was in the inbox at this cycle's fetch.
// AddTrack re-checks this before committing so a track removed from the inbox
// mid-classification is not re-added by a still-running task.
func (s *cycleState) InSource(trackID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.source[trackID]
	return ok
}

// InAnyTarget reports whether a track is already a member of any target playlist.
func (s *cycleState) InAnyTarget(trackID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, set := range s.members {
		if _, ok := set[trackID]; ok {
			return true
		}
	}
	return false
}
