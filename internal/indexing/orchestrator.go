package indexing

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/chatcortex/internal/platform/apierr"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

func asRateLimited(err error) (*RateLimitedError, bool) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) && apiErr.Status == 429 {
		return &RateLimitedError{Cause: err}, true
	}
	return nil, false
}

// Metrics is the shared indexing-metrics object every handler contributes
// to (spec.md §4.5).
type Metrics struct {
	BatchesRun     int64
	ItemsProcessed int64
	RateLimitPauses int64
}

// Orchestrator runs each enabled handler to exhaustion, bounded by
// MaxBatchesPerRun, with a short delay between batches and a long idle
// delay when every handler reports no more work.
type Orchestrator struct {
	handlers            []Handler
	maxBatchesPerRun    int
	batchSize           int
	interBatchDelay     time.Duration
	idleDelay           time.Duration
	rateLimitPauseFor   time.Duration
	log                 *logger.Logger
	metrics             Metrics
}

type Config struct {
	MaxBatchesPerRun  int
	BatchSize         int
	InterBatchDelay   time.Duration
	IdleDelay         time.Duration
	RateLimitPauseFor time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxBatchesPerRun:  50,
		BatchSize:         32,
		InterBatchDelay:   200 * time.Millisecond,
		IdleDelay:         30 * time.Second,
		RateLimitPauseFor: 60 * time.Second,
	}
}

func NewOrchestrator(handlers []Handler, cfg Config, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		handlers:          handlers,
		maxBatchesPerRun:  cfg.MaxBatchesPerRun,
		batchSize:         cfg.BatchSize,
		interBatchDelay:   cfg.InterBatchDelay,
		idleDelay:         cfg.IdleDelay,
		rateLimitPauseFor: cfg.RateLimitPauseFor,
		log:               log.With("component", "indexing.Orchestrator"),
	}
}

// Run loops until ctx is cancelled, running every handler to exhaustion
// each pass.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		anyWork := o.runPass(ctx)

		if !anyWork {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.idleDelay):
			}
		}
	}
}

// runPass runs each handler up to maxBatchesPerRun batches, returning
// whether any handler did work this pass.
func (o *Orchestrator) runPass(ctx context.Context) bool {
	anyWork := false
	for _, h := range o.handlers {
		for i := 0; i < o.maxBatchesPerRun; i++ {
			select {
			case <-ctx.Done():
				return anyWork
			default:
			}

			res, err := h.ProcessBatch(ctx, o.batchSize)
			if err != nil {
				var rl *RateLimitedError
				if errors.As(err, &rl) {
					o.metrics.RateLimitPauses++
					o.log.Warn("rate limited, pausing orchestrator loop", "handler", h.Name(), "pause", o.rateLimitPauseFor.String())
					select {
					case <-ctx.Done():
						return anyWork
					case <-time.After(o.rateLimitPauseFor):
					}
					break
				}
				o.log.Error("handler batch failed", "handler", h.Name(), "error", err)
				break
			}

			o.metrics.BatchesRun++
			o.metrics.ItemsProcessed += int64(res.Processed)
			if res.Processed > 0 {
				anyWork = true
			}
			if !res.HasMore {
				break
			}

			select {
			case <-ctx.Done():
				return anyWork
			case <-time.After(o.interBatchDelay):
			}
		}
	}
	return anyWork
}

func (o *Orchestrator) Metrics() Metrics { return o.metrics }
