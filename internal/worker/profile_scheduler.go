package worker

import (
	"context"
	"time"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/profile"
)

const profileActiveLookback = 7 * 24 * time.Hour

// ProfileGeneratorScheduler runs profile.Generator once a day at a
// configured UTC hour/minute across every active chat (spec.md §4.9,
// §6's "nightly profile UTC" schedule knob).
type ProfileGeneratorScheduler struct {
	chats     repos.ChatRepo
	generator *profile.Generator
	hour      int
	minute    int
	log       *logger.Logger
}

func NewProfileGeneratorScheduler(chats repos.ChatRepo, generator *profile.Generator, hour, minute int, log *logger.Logger) *ProfileGeneratorScheduler {
	return &ProfileGeneratorScheduler{chats: chats, generator: generator, hour: hour, minute: minute, log: log.With("component", "worker.ProfileGeneratorScheduler")}
}

func (s *ProfileGeneratorScheduler) Run(ctx context.Context) {
	RunDaily(ctx, s.hour, s.minute, s.runOnce, s.log)
}

func (s *ProfileGeneratorScheduler) runOnce(ctx context.Context) {
	dc := dbctx.Context{Ctx: ctx}
	chats, err := s.chats.ListActive(dc)
	if err != nil {
		s.log.Error("list active chats failed", "error", err)
		return
	}
	since := time.Now().UTC().Add(-profileActiveLookback)
	for _, c := range chats {
		if err := s.generator.RunForChat(ctx, c.ChatID, since); err != nil {
			s.log.Error("profile generation failed for chat", "chat_id", c.ChatID, "error", err)
		}
	}
}
