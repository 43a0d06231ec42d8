package tasks

import (
	"fmt"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/services"
)

// ProgressUpdate represents a progress event during a sync cycle.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Cycle phase
	Cycle   int64  // Cycle number
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Cycle phase enumeration
type Phase int

const (
	Fetching Phase = iota
	Reconciling
	Dispatching
	Classifying
	Routing
	Sleeping
)

func (p Phase) String() string {
	switch p {
	case Fetching:
		return "fetching"
	case Reconciling:
		return "reconciling"
	case Dispatching:
		return "dispatching"
	case Classifying:
		return "classifying"
	case Routing:
		return "routing"
	case Sleeping:
		return "sleeping"
	default:
		return ""
	}
}

func fetchingUpdate(cycle int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Cycle:   cycle,
		Message: "Fetching inbox playlist...",
	}
}

func reconcilingUpdate(cycle int64, targets int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconciling,
		Cycle:   cycle,
		Message: fmt.Sprintf("Reconciling %d target playlists...", targets),
	}
}

func removedUpdate(cycle int64, playlistID string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconciling,
		Cycle:   cycle,
		Message: fmt.Sprintf("Removed %d tracks from %s", count, playlistID),
	}
}

func dispatchingUpdate(cycle int64, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dispatching,
		Cycle:   cycle,
		Message: fmt.Sprintf("Dispatching %d new tracks for classification...", count),
	}
}

func classifyingUpdate(cycle int64, track services.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Classifying,
		Cycle:   cycle,
		Message: fmt.Sprintf("Classifying: %s - %s", track.Artist, track.Name),
	}
}

func routedUpdate(cycle int64, track services.Track, genre string, confidence float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Routing,
		Cycle:   cycle,
		Message: fmt.Sprintf("Routed %s into %s (%.2f)", track.Name, genre, confidence),
	}
}

func sleepingUpdate(cycle int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Sleeping,
		Cycle:   cycle,
		Message: "Cycle complete, sleeping...",
	}
}
