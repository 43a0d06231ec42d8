package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/YodaBotOS/spotify-genre-sorter-lite/internal/shared"
)

func TestFetchAll(t *testing.T) {
	const pageSize = 3

	tests := []struct {
		name         string
		items        int
		wantRequests int
	}{
		{name: "empty collection", items: 0, wantRequests: 1},
		{name: "single item", items: 1, wantRequests: 2},
		{name: "exactly one page", items: pageSize, wantRequests: 2},
		{name: "one page plus one", items: pageSize + 1, wantRequests: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}

			requests := 0
			got, err := fetchAll(context.Background(), pageSize, func(ctx context.Context, limit, offset int) ([]int, error) {
				requests++
				return page(items, limit, offset), nil
			})
			if err != nil {
				t.Fatalf("fetch failed: %v", err)
			}

			if requests != tt.wantRequests {
				t.Errorf("expected %d requests, got %d", tt.wantRequests, requests)
			}
			if len(got) != tt.items {
				t.Fatalf("expected %d items, got %d", tt.items, len(got))
			}
			for i, v := range got {
				if v != i {
					t.Errorf("expected server order preserved, got %v", got)
					break
				}
			}
		})
	}

	t.Run("short final page terminates", func(t *testing.T) {
		// The server returns fewer items than requested on the second page;
		// the offset must advance by the actual page length.
		pages := [][]int{{0, 1, 2}, {3}, {}}
		requests := 0

		got, err := fetchAll(context.Background(), pageSize, func(ctx context.Context, limit, offset int) ([]int, error) {
			page := pages[requests]
			requests++
			return page, nil
		})
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}

		if len(got) != 4 {
			t.Errorf("expected 4 items, got %d", len(got))
		}
		if requests != 3 {
			t.Errorf("expected 3 requests, got %d", requests)
		}
	})

	t.Run("page failure propagates", func(t *testing.T) {
		_, err := fetchAll(context.Background(), pageSize, func(ctx context.Context, limit, offset int) ([]int, error) {
			return nil, fmt.Errorf("%w: status 502", shared.ErrUpstream)
		})

		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected upstream error, got %v", err)
		}
	})
}
