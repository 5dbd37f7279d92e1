// Package indexing drives the embedding pipeline: handlers that discover
// unindexed content and turn it into vectors, run to exhaustion by an
// orchestrator loop (spec.md §4.5).
package indexing

import (
	"context"
	"time"
)

// Stats is one handler's progress snapshot.
type Stats struct {
	Total   int64
	Indexed int64
	Pending int64
}

// BatchResult reports one process_batch call's outcome.
type BatchResult struct {
	Processed int
	Elapsed   time.Duration
	HasMore   bool
}

// Handler is the polymorphic contract every embedding handler satisfies.
type Handler interface {
	Name() string
	GetStats(ctx context.Context) (Stats, error)
	ProcessBatch(ctx context.Context, size int) (BatchResult, error)
}

// RateLimitedError signals a handler hit a 429 from the embedding provider;
// the orchestrator pauses the whole loop on this, not just this handler.
type RateLimitedError struct{ Cause error }

func (e *RateLimitedError) Error() string { return "indexing: rate limited: " + e.Cause.Error() }
func (e *RateLimitedError) Unwrap() error { return e.Cause }
