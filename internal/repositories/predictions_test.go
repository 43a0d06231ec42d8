package repositories

import (
	"testing"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
)

func newTestRepo(t *testing.T) *PredictionRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewPredictionRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return repo
}

func TestPredictionRepository(t *testing.T) {
	t.Run("miss then hit", func(t *testing.T) {
		repo := newTestRepo(t)

		if _, ok, err := repo.Get("t1"); err != nil || ok {
			t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
		}

		genres := map[string]float64{"rock": 0.9, "pop": 0.1}
		if err := repo.Put("t1", genres); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		got, ok, err := repo.Get("t1")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if got["rock"] != 0.9 || got["pop"] != 0.1 {
			t.Errorf("unexpected cached genres: %v", got)
		}
	})

	t.Run("duplicate put is deduplicated", func(t *testing.T) {
		repo := newTestRepo(t)

		if err := repo.Put("t1", map[string]float64{"rock": 0.9}); err != nil {
			t.Fatalf("put failed: %v", err)
		}
		if err := repo.Put("t1", map[string]float64{"jazz": 0.4}); err != nil {
			t.Fatalf("duplicate put should be silent, got %v", err)
		}

		got, ok, err := repo.Get("t1")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if _, exists := got["rock"]; !exists {
			t.Errorf("expected first prediction to win, got %v", got)
		}
	})

	t.Run("empty prediction round-trips", func(t *testing.T) {
		repo := newTestRepo(t)

		if err := repo.Put("t2", map[string]float64{}); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		got, ok, err := repo.Get("t2")
		if err != nil || !ok {
			t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty prediction, got %v", got)
		}
	})
}
