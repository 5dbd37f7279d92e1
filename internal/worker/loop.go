// Package worker implements the long-running background orchestrators
// that drive queues and scheduled passes (spec.md §2 item 9, §5): one or
// more workers per queue, the indexing loop, the profile worker, the
// nightly profile-generator and daily-summary schedulers, and the
// health/recovery watchdog. Grounded on the teacher's job-worker loop
// (formerly internal/jobs/worker/worker.go) generalized from a single
// course-generation job type to the wake-on-notify-or-poll shape every
// queue in this domain shares.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/notify"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

// defaultPollTimeout bounds how long a worker waits on its notify mailbox
// before falling back to an unconditional Pick (covers missed
// notifications and the case where no bridge is wired at all).
const defaultPollTimeout = 5 * time.Second

// RunQueueWorker drains svc until ctx is cancelled: wait for a wakeup (or
// timeout), then Pick/handle/Complete-or-Fail rows until the queue is
// empty, then wait again. handle's error return determines retry vs
// success; handle must not panic (a recover keeps one bad row from taking
// the whole worker down).
func RunQueueWorker(ctx context.Context, svc *queue.Service, mailbox <-chan int64, handle func(context.Context, *model.QueueRow) error, log *logger.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if mailbox != nil {
			notify.WaitOrTimeout(mailbox, defaultPollTimeout)
		} else {
			select {
			case <-ctx.Done():
				return
			case <-time.After(defaultPollTimeout):
			}
		}

		for {
			if ctx.Err() != nil {
				return
			}
			row, err := svc.Pick(ctx)
			if err != nil {
				log.Error("pick failed", "error", err)
				break
			}
			if row == nil {
				break
			}
			runHandlerSafely(ctx, svc, row, handle, log)
		}
	}
}

func runHandlerSafely(ctx context.Context, svc *queue.Service, row *model.QueueRow, handle func(context.Context, *model.QueueRow) error, log *logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked, marking row failed", "row_id", row.ID, "panic", r)
			_ = svc.Fail(ctx, row.ID, row.AttemptCount, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := handle(ctx, row); err != nil {
		log.Warn("handler failed, scheduling retry", "row_id", row.ID, "attempt", row.AttemptCount, "error", err)
		if ferr := svc.Fail(ctx, row.ID, row.AttemptCount, err); ferr != nil {
			log.Error("fail() itself failed", "row_id", row.ID, "error", ferr)
		}
		return
	}
	if err := svc.Complete(ctx, row.ID); err != nil {
		log.Error("complete() failed", "row_id", row.ID, "error", err)
	}
}
