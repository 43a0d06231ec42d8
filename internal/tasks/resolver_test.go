package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/services"
	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
)

func newTestResolver(t *testing.T, lib *mockLibrary) *TargetResolver {
	t.Helper()
	return NewTargetResolver(lib, testNaming(t).Template(), 2, 2)
}

func TestTargetResolver_Resolve(t *testing.T) {
	t.Run("matches template and fetches membership", func(t *testing.T) {
		lib := newMockLibrary()
		lib.playlists = []services.PlaylistRef{
			{ID: "pl_rock", Name: "Sorted: Rock", OwnerID: "user1"},
			{ID: "pl_mix", Name: "Road Trip Mix", OwnerID: "user1"},
			{ID: "pl_jazz", Name: "Sorted: Jazz", OwnerID: "user1"},
			{ID: "pl_other", Name: "Sorted: Pop", OwnerID: "someone_else"},
		}
		lib.tracks["pl_rock"] = []services.Track{testTrack("A", ""), testTrack("B", ""), testTrack("C", "")}
		lib.tracks["pl_jazz"] = nil

		targets, members, err := newTestResolver(t, lib).Resolve(context.Background(), "user1")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		if len(targets) != 2 {
			t.Fatalf("expected 2 targets, got %d: %v", len(targets), targets)
		}
		if targets["rock"].ID != "pl_rock" || targets["jazz"].ID != "pl_jazz" {
			t.Errorf("unexpected target mapping: %v", targets)
		}

		if len(members["pl_rock"]) != 3 {
			t.Errorf("expected 3 rock members, got %d", len(members["pl_rock"]))
		}
		if len(members["pl_jazz"]) != 0 {
			t.Errorf("expected no jazz members, got %d", len(members["pl_jazz"]))
		}

		// Page size 2 over 3 tracks: two full fetch rounds plus the terminator.
		if got := lib.trackPages["pl_rock"]; got != 3 {
			t.Errorf("expected 3 page requests for rock, got %d", got)
		}
	})

	t.Run("label collision keeps the last match", func(t *testing.T) {
		lib := newMockLibrary()
		lib.playlists = []services.PlaylistRef{
			{ID: "pl_old", Name: "Sorted: Rock", OwnerID: "user1"},
			{ID: "pl_new", Name: "Sorted: ROCK", OwnerID: "user1"},
		}

		targets, _, err := newTestResolver(t, lib).Resolve(context.Background(), "user1")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}

		if targets["rock"].ID != "pl_new" {
			t.Errorf("expected last match to win, got %s", targets["rock"].ID)
		}
	})

	t.Run("no targets is a valid empty result", func(t *testing.T) {
		lib := newMockLibrary()
		lib.playlists = []services.PlaylistRef{
			{ID: "pl_mix", Name: "Road Trip Mix", OwnerID: "user1"},
		}

		targets, members, err := newTestResolver(t, lib).Resolve(context.Background(), "user1")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if len(targets) != 0 || len(members) != 0 {
			t.Errorf("expected empty result, got %v / %v", targets, members)
		}
	})

	t.Run("fetch failure propagates as upstream error", func(t *testing.T) {
		lib := newMockLibrary()
		lib.playlistsErr = fmt.Errorf("%w: status 500", shared.ErrUpstream)

		_, _, err := newTestResolver(t, lib).Resolve(context.Background(), "user1")
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected upstream error, got %v", err)
		}
	})
}
