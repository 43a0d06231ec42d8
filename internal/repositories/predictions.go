// package repositories provides the persistence layer for classifier output.
//
// The prediction cache stores genre confidences keyed by track ID so the
// classifier gate can skip the prediction API for tracks it has already
// scored. Sync state itself is never persisted.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
)

// PredictionRepository caches genre-prediction results in SQLite.
type PredictionRepository struct {
	db *sql.DB
}

// NewPredictionRepository creates a new PredictionRepository with the given database connection
func NewPredictionRepository(db *sql.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Migrate creates the predictions table if it does not exist.
func (r *PredictionRepository) Migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			track_id TEXT NOT NULL UNIQUE,
			genres TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create predictions table: %w", err)
	}

	return nil
}

// Get retrieves cached genre confidences for a track.
// The second return value reports whether a cached entry exists.
func (r *PredictionRepository) Get(trackID string) (map[string]float64, bool, error) {
	query := `SELECT genres FROM predictions WHERE track_id = ?`

	var raw string
	err := r.db.QueryRow(query, trackID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query prediction: %w", err)
	}

	var genres map[string]float64
	if err := json.Unmarshal([]byte(raw), &genres); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached prediction: %w", err)
	}

	return genres, true, nil
}

// Put caches genre confidences for a track.
// Returns nil if the track is already cached (deduplication via UNIQUE constraint).
func (r *PredictionRepository) Put(trackID string, genres map[string]float64) error {
	raw, err := json.Marshal(genres)
	if err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}

	query := `INSERT INTO predictions (id, track_id, genres, created_at) VALUES (?, ?, ?, ?)`

	_, err = r.db.Exec(query, shared.GenerateID(), trackID, string(raw), time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache prediction: %w", err)
	}

	return nil
}
