package app

import (
	"github.com/yungbote/chatcortex/internal/command"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

func BuildDispatcher(cfg Config, repos *Repos, queues *Queues, log *logger.Logger) *command.Dispatcher {
	return command.NewDispatcher(
		queues.Ask, queues.Summary, queues.Truth, queues.Message,
		repos.Chats, repos.Settings, repos.Messages,
		command.AdminIdentity{ID: cfg.AdminUserID, Username: cfg.AdminUsername},
		cfg.MaxPendingPerQueue,
		log,
	)
}
