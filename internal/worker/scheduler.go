package worker

import (
	"context"
	"time"

	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// RunDaily invokes task once every day at hour:minute UTC until ctx is
// cancelled, grounded on the teacher's nightly/cron rollup job pattern
// (the same shape profile.Generator's own nightly pass is grounded on).
func RunDaily(ctx context.Context, hour, minute int, task func(context.Context), log *logger.Logger) {
	for {
		now := time.Now().UTC()
		next := nextDailyOccurrence(now, hour, minute)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}
		if ctx.Err() != nil {
			return
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("scheduled task panicked", "panic", r)
				}
			}()
			task(ctx)
		}()
	}
}

func nextDailyOccurrence(now time.Time, hour, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !candidate.After(now) {
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}
