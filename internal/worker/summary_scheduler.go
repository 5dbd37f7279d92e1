package worker

import (
	"context"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

const defaultDailySummaryHours = 24

// DailySummaryScheduler enqueues a /summary-equivalent request for every
// active chat once a day at a configured UTC hour/minute (spec.md §6's
// "daily summary UTC" schedule knob).
type DailySummaryScheduler struct {
	chats        repos.ChatRepo
	summaryQueue *queue.Service
	hour         int
	minute       int
	log          *logger.Logger
}

func NewDailySummaryScheduler(chats repos.ChatRepo, summaryQueue *queue.Service, hour, minute int, log *logger.Logger) *DailySummaryScheduler {
	return &DailySummaryScheduler{chats: chats, summaryQueue: summaryQueue, hour: hour, minute: minute, log: log.With("component", "worker.DailySummaryScheduler")}
}

func (s *DailySummaryScheduler) Run(ctx context.Context) {
	RunDaily(ctx, s.hour, s.minute, s.runOnce, s.log)
}

func (s *DailySummaryScheduler) runOnce(ctx context.Context) {
	dc := dbctx.Context{Ctx: ctx}
	chats, err := s.chats.ListActive(dc)
	if err != nil {
		s.log.Error("list active chats failed", "error", err)
		return
	}
	for _, c := range chats {
		if _, err := s.summaryQueue.Enqueue(ctx, model.SummaryQueuePayload{ChatID: c.ChatID, Hours: defaultDailySummaryHours}); err != nil {
			s.log.Error("daily summary enqueue failed", "chat_id", c.ChatID, "error", err)
		}
	}
}
