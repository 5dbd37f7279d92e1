// Package embedding wraps an embedding provider behind the resilience chain
// spec.md §4.4 names: concurrency limiter, per-attempt timeout, retry with
// jittered backoff, and a circuit breaker. An open breaker rejects a call
// before it reaches the limiter; a call the limiter admits is retried with
// each attempt under its own timeout, and every attempt's outcome is
// recorded in the breaker.
package embedding

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/chatcortex/internal/pkg/httpx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// Provider is the narrow contract an embedding backend must satisfy.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrBreakerOpen is returned when the circuit breaker has tripped.
var ErrBreakerOpen = errors.New("embedding: circuit breaker open")

// ErrWaiterQueueFull is returned when the concurrency limiter's FIFO queue
// of waiters is already saturated (spec.md §5 backpressure: "the caller
// observes a synchronous rejection and reschedules via the retry policy").
var ErrWaiterQueueFull = errors.New("embedding: concurrency limiter waiter queue full")

// Config tunes the resilience chain.
type Config struct {
	MaxConcurrency  int64
	MaxWaiters      int
	AttemptTimeout  time.Duration
	MaxAttempts     int
	RetryBaseDelay  time.Duration

	BreakerWindow     time.Duration
	BreakerMinSamples int
	BreakerFailRatio  float64
	BreakerOpenFor    time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxConcurrency:    1,
		MaxWaiters:        200,
		AttemptTimeout:    30 * time.Second,
		MaxAttempts:       5,
		RetryBaseDelay:    time.Second,
		BreakerWindow:     60 * time.Second,
		BreakerMinSamples: 10,
		BreakerFailRatio:  0.8,
		BreakerOpenFor:    15 * time.Second,
	}
}

// ResilientClient composes the policy around an inner Provider.
type ResilientClient struct {
	inner   Provider
	cfg     Config
	sem     *semaphore.Weighted
	waiters chan struct{}
	breaker *breaker
	log     *logger.Logger
}

func NewResilientClient(inner Provider, cfg Config, log *logger.Logger) *ResilientClient {
	return &ResilientClient{
		inner:   inner,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrency),
		waiters: make(chan struct{}, cfg.MaxWaiters),
		breaker: newBreaker(cfg.BreakerWindow, cfg.BreakerMinSamples, cfg.BreakerFailRatio, cfg.BreakerOpenFor),
		log:     log.With("component", "embedding.ResilientClient"),
	}
}

func (c *ResilientClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.breaker.open() {
		return nil, ErrBreakerOpen
	}

	select {
	case c.waiters <- struct{}{}:
		defer func() { <-c.waiters }()
	default:
		return nil, ErrWaiterQueueFull
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.AttemptTimeout)
		out, err := c.inner.Embed(attemptCtx, texts)
		cancel()

		if err == nil {
			c.breaker.record(false)
			return out, nil
		}

		c.breaker.record(isProviderFailure(err))
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !httpx.IsRetryableError(err) {
			return nil, err
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		delay := httpx.JitterSleep(c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt-1)))
		c.log.Warn("embedding attempt failed, retrying", "attempt", attempt, "delay", delay.String(), "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// isProviderFailure narrows which errors count toward the breaker's
// sampling window: only 429/503-shaped failures per spec.md §4.4.
func isProviderFailure(err error) bool {
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode() == 429 || sc.HTTPStatusCode() == 503
	}
	return false
}

// breaker implements a sliding-window failure-ratio circuit breaker.
type breaker struct {
	mu         sync.Mutex
	window     time.Duration
	minSamples int
	failRatio  float64
	openFor    time.Duration

	samples   []sample
	openUntil time.Time
}

type sample struct {
	at      time.Time
	counted bool
}

func newBreaker(window time.Duration, minSamples int, failRatio float64, openFor time.Duration) *breaker {
	return &breaker{window: window, minSamples: minSamples, failRatio: failRatio, openFor: openFor}
}

func (b *breaker) open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return time.Now().Before(b.openUntil)
}

func (b *breaker) record(countsAsFailure bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.samples = append(b.samples, sample{at: now, counted: countsAsFailure})

	cutoff := now.Add(-b.window)
	fresh := b.samples[:0]
	for _, s := range b.samples {
		if s.at.After(cutoff) {
			fresh = append(fresh, s)
		}
	}
	b.samples = fresh

	if len(b.samples) < b.minSamples {
		return
	}
	failed := 0
	for _, s := range b.samples {
		if s.counted {
			failed++
		}
	}
	if float64(failed)/float64(len(b.samples)) >= b.failRatio {
		b.openUntil = now.Add(b.openFor)
		b.samples = nil
	}
}
