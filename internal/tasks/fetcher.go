package tasks

import (
	"context"
	"fmt"
)

// pageFunc fetches one page of results at the given limit and offset.
// An empty page signals the end of pagination.
type pageFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// fetchAll drains a paginated endpoint into a single slice, preserving server
// order. The offset advances by the actual returned page length so short final
// pages terminate correctly. No retries; the caller owns retry policy.
func fetchAll[T any](ctx context.Context, pageSize int, fetch pageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = 50
	}

	var all []T
	offset := 0

	for {
		page, err := fetch(ctx, pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}

		if len(page) == 0 {
			return all, nil
		}

		all = append(all, page...)
		offset += len(page)
	}
}
