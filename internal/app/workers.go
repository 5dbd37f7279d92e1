package app

import (
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/worker"
)

// Workers holds every background orchestrator spec.md §2 item 9 and §5
// name: the per-queue drain workers, the two daily schedulers, and the
// stale-lease watchdog.
type Workers struct {
	Ask               *worker.AskWorker
	Summary           *worker.SummaryWorker
	Truth             *worker.TruthWorker
	Profile           *worker.ProfileWorker
	ProfileScheduler  *worker.ProfileGeneratorScheduler
	SummaryScheduler  *worker.DailySummaryScheduler
	Watchdog          *worker.Watchdog
	Emitter           worker.ResponseEmitter
}

func BuildWorkers(cfg Config, clients *Clients, repos *Repos, queues *Queues, services *Services, log *logger.Logger) *Workers {
	emitter := worker.NewLogEmitter(log)

	ask := worker.NewAskWorker(
		queues.Ask, clients.Notify.Mailbox(queues.Ask.Channel()),
		services.Engine, services.Answerer, services.Composer, repos.Settings, emitter, log,
	)
	summary := worker.NewSummaryWorker(
		queues.Summary, clients.Notify.Mailbox(queues.Summary.Channel()),
		repos.Messages, repos.Memory, clients.Router, emitter, log,
	)
	truth := worker.NewTruthWorker(
		queues.Truth, clients.Notify.Mailbox(queues.Truth.Channel()),
		repos.Messages, clients.Router, emitter, log,
	)
	profileWorker := worker.NewProfileWorker(
		queues.Message, clients.Notify.Mailbox(queues.Message.Channel()),
		repos.Messages, services.Extractor, log,
	)

	profileScheduler := worker.NewProfileGeneratorScheduler(repos.Chats, services.Generator, cfg.NightlyProfileHour, cfg.NightlyProfileMin, log)
	summaryScheduler := worker.NewDailySummaryScheduler(repos.Chats, queues.Summary, cfg.DailySummaryHour, cfg.DailySummaryMinute, log)
	watchdog := worker.NewWatchdog(queues.Named(), 0, log)

	return &Workers{
		Ask: ask, Summary: summary, Truth: truth, Profile: profileWorker,
		ProfileScheduler: profileScheduler, SummaryScheduler: summaryScheduler,
		Watchdog: watchdog, Emitter: emitter,
	}
}
