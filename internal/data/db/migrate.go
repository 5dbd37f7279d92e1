package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/domain/model"
)

// AutoMigrateAll creates/updates every table the core depends on, then
// raises the per-queue tables that gorm's generic migration cannot express
// (they all share model.QueueRow's shape but live under distinct names) and
// the vector-index and full-text indexes the retrieval engine needs.
// Startup per spec.md §6: "initialises the database... before any worker
// starts."
func AutoMigrateAll(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&model.Chat{},
		&model.Message{},
		&model.MessageEmbedding{},
		&model.ContextEmbedding{},
		&model.QuestionEmbedding{},
		&model.UserAlias{},
		&model.UserFact{},
		&model.UserProfile{},
		&model.UserRelationship{},
		&model.ConversationMemoryItem{},
		&model.BannedUser{},
		&model.ChatSettings{},
		&model.AdminSettings{},
		&model.PromptSettings{},
	); err != nil {
		return fmt.Errorf("automigrate core tables: %w", err)
	}

	for _, table := range []string{
		model.TableAskQueue,
		model.TableSummaryQueue,
		model.TableTruthQueue,
		model.TableMessageQueue,
		model.TableQuestionGenerationQueue,
	} {
		if err := migrateQueueTable(gdb, table); err != nil {
			return fmt.Errorf("automigrate queue table %s: %w", table, err)
		}
	}

	if err := migrateIndexes(gdb); err != nil {
		return fmt.Errorf("automigrate indexes: %w", err)
	}

	return nil
}

// migrateQueueTable raises one physical table with model.QueueRow's shape.
// gorm.AutoMigrate can't be pointed at the same struct with a different
// table name in one call, so each queue gets its own raw DDL pass that
// mirrors QueueRow exactly; the queue package reads/writes these columns by
// name regardless of which table it was configured with.
func migrateQueueTable(gdb *gorm.DB, table string) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id              BIGSERIAL PRIMARY KEY,
	payload         JSONB NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	picked_at       TIMESTAMPTZ,
	started_at      TIMESTAMPTZ,
	completed_at    TIMESTAMPTZ,
	attempt_count   INTEGER NOT NULL DEFAULT 0,
	next_run_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed       BOOLEAN NOT NULL DEFAULT false,
	last_error      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_%s_ready ON %s (processed, next_run_at, picked_at);
`, table, table, table)
	return gdb.Exec(stmt).Error
}

// migrateIndexes raises the vector-kNN and full-text indexes the retrieval
// engine depends on (spec.md §4.6 candidate gathering).
func migrateIndexes(gdb *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_message_embeddings_vec ON message_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
		`CREATE INDEX IF NOT EXISTS idx_context_embeddings_vec ON context_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
		`CREATE INDEX IF NOT EXISTS idx_question_embeddings_vec ON question_embeddings USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_text_fts ON messages USING gin (to_tsvector('simple', coalesce(text, '')));`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat_created ON messages (chat_id, created_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return err
		}
	}
	return nil
}
