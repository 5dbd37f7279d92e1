package worker

import (
	"context"
	"time"

	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

const (
	defaultWatchdogInterval = time.Minute
	queueRetention          = 7 * 24 * time.Hour
	cleanupEverySweeps      = 60
)

// Watchdog periodically sweeps every registered queue for stale leases
// (spec.md §5: "if it crashes mid-lease the stale sweep reclaims the row
// within one lease interval"), recovering rows to ready or dead-lettering
// them on the final attempt. Roughly once an hour it also deletes
// completed rows past the retention window.
type Watchdog struct {
	queues   map[string]*queue.Service
	interval time.Duration
	sweeps   int
	log      *logger.Logger
}

func NewWatchdog(queues map[string]*queue.Service, interval time.Duration, log *logger.Logger) *Watchdog {
	if interval <= 0 {
		interval = defaultWatchdogInterval
	}
	return &Watchdog{queues: queues, interval: interval, log: log.With("component", "worker.Watchdog")}
}

func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepOnce(ctx)
		}
	}
}

func (w *Watchdog) sweepOnce(ctx context.Context) {
	w.sweeps++
	cleanup := w.sweeps%cleanupEverySweeps == 0
	for name, q := range w.queues {
		recovered, dead, err := q.RecoverStale(ctx)
		if err != nil {
			w.log.Error("stale sweep failed", "queue", name, "error", err)
			continue
		}
		if recovered > 0 || dead > 0 {
			w.log.Info("stale sweep", "queue", name, "recovered", recovered, "dead_lettered", dead)
		}
		if cleanup {
			removed, err := q.Cleanup(ctx, queueRetention)
			if err != nil {
				w.log.Error("queue cleanup failed", "queue", name, "error", err)
			} else if removed > 0 {
				w.log.Info("queue cleanup", "queue", name, "removed", removed)
			}
		}
	}
}
