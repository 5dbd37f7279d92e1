package worker

import (
	"context"

	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// LogEmitter satisfies ResponseEmitter by logging instead of delivering.
// It is the composition root's default until a real transport adapter
// (out of scope per spec.md §1) is wired in its place.
type LogEmitter struct {
	log *logger.Logger
}

func NewLogEmitter(log *logger.Logger) *LogEmitter {
	return &LogEmitter{log: log.With("component", "worker.LogEmitter")}
}

func (e *LogEmitter) SendText(ctx context.Context, chatID int64, text string) error {
	e.log.Info("would send text (no transport wired)", "chat_id", chatID, "text", text)
	return nil
}
