package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/notify"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/queue"
)

// Queues holds one queue.Service per physical table named in spec.md §6.
type Queues struct {
	Ask                *queue.Service
	Summary            *queue.Service
	Truth              *queue.Service
	Message            *queue.Service
	QuestionGeneration *queue.Service
}

// BuildQueues constructs every queue.Service and registers its NOTIFY
// channel mailbox with the bridge before Bridge.Run is started, since
// Run issues LISTEN once at connect time for every channel known at that
// point (internal/notify.Bridge's doc comment).
func BuildQueues(gdb *gorm.DB, cfg Config, bridge *notify.Bridge, log *logger.Logger) *Queues {
	q := &Queues{
		Ask:                queue.New(gdb, cfg.queueConfig(model.TableAskQueue, "ask"), log),
		Summary:            queue.New(gdb, cfg.queueConfig(model.TableSummaryQueue, "summary"), log),
		Truth:              queue.New(gdb, cfg.queueConfig(model.TableTruthQueue, "truth"), log),
		Message:            queue.New(gdb, cfg.queueConfig(model.TableMessageQueue, "message"), log),
		QuestionGeneration: queue.New(gdb, cfg.queueConfig(model.TableQuestionGenerationQueue, "question_generation"), log),
	}
	for _, svc := range q.all() {
		bridge.Mailbox(svc.Channel())
	}
	return q
}

func (q *Queues) all() []*queue.Service {
	return []*queue.Service{q.Ask, q.Summary, q.Truth, q.Message, q.QuestionGeneration}
}

// Named returns every queue keyed by its dashboard-stats name, for the
// watchdog sweep and the dashboard broadcast loop.
func (q *Queues) Named() map[string]*queue.Service {
	return map[string]*queue.Service{
		"ask":                  q.Ask,
		"summary":              q.Summary,
		"truth":                q.Truth,
		"message":              q.Message,
		"question_generation": q.QuestionGeneration,
	}
}
