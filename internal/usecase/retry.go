package usecase

import (
	"context"
	"fmt"
	"log"
	"time"
)

// RetryPolicy is a bounded retry: at most Attempts tries with Delay between
// them. Domain errors are never retried; only technical/unknown failures are.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, exhausts the attempt budget, hits a domain
// error, or the context is cancelled. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if IsDomainError(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		log.Printf("⚠️ [RETRY] %s attempt %d/%d failed: %v", name, attempt, attempts, lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
