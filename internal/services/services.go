// package services defines interfaces for the HTTP APIs the sorter talks to
//
// Spotify (playlist reads and mutations), genre prediction (via proxy)
package services

import (
	"context"
)

// Library defines the playlist-service operations the sync engine consumes.
// Paginated methods return one page of results; an empty page signals the end.
type Library interface {
	// CurrentUser retrieves the authenticated user's identity.
	CurrentUser(ctx context.Context) (*User, error)

	// UserPlaylists retrieves one page of the current user's playlists.
	UserPlaylists(ctx context.Context, limit, offset int) ([]PlaylistRef, error)

	// PlaylistTracks retrieves one page of a playlist's tracks.
	PlaylistTracks(ctx context.Context, playlistID string, limit, offset int) ([]Track, error)

	// CreatePlaylist creates a playlist owned by userID and returns its descriptor.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*PlaylistRef, error)

	// AddTracks adds the given track URIs to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// RemoveTracks removes the given track URIs from a playlist.
	RemoveTracks(ctx context.Context, playlistID string, uris []string) error
}

// GenreClassifier defines the genre-prediction operation the classifier gate consumes.
type GenreClassifier interface {
	// Predict maps a track preview URL to genre labels with confidence scores in [0,1].
	Predict(ctx context.Context, previewURL string) (map[string]float64, error)
}

// User represents an authenticated user's identity on any service
type User struct {
	ID          string
	DisplayName string
}

// PlaylistRef represents a playlist descriptor from any service
type PlaylistRef struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	Public      bool
}

// Track represents a music track from any service
type Track struct {
	ID         string
	Name       string
	Artist     string
	URI        string
	PreviewURL string // 30s audio preview, the classification input
}
