package portal

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"attendbot/internal/attendance"
)

// Limited caps the number of browser sessions open at once.
type Limited struct {
	next Generator
	sem  *semaphore.Weighted
}

// Limit wraps next so that at most n scrapes run concurrently. n <= 0
// returns next unchanged.
func Limit(next Generator, n int) Generator {
	if n <= 0 {
		return next
	}
	return &Limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

// Generate waits for a free slot, giving up if ctx ends first.
func (l *Limited) Generate(ctx context.Context, creds attendance.Credentials) (*attendance.Report, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for a free browser slot: %w", err)
	}
	defer l.sem.Release(1)
	return l.next.Generate(ctx, creds)
}
