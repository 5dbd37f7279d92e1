package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/chatcortex/internal/data/db"
	"github.com/yungbote/chatcortex/internal/notify"
	"github.com/yungbote/chatcortex/internal/platform/dashboard"
	"github.com/yungbote/chatcortex/internal/platform/embedding"
	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/platform/neo4jdb"
	"github.com/yungbote/chatcortex/internal/retrieval"
)

// Clients holds every external-facing connection the core depends on.
// Optional ones (dashboard bus, Neo4j mirror) are nil when unconfigured;
// every downstream consumer treats nil as "feature disabled", never as
// an error (spec.md §7: non-core collaborators degrade gracefully).
type Clients struct {
	DB       *gorm.DB
	Notify   *notify.Bridge
	Embedder embedding.Provider
	Router   *llm.Router
	Reranker retrieval.Reranker

	DashboardBus *dashboard.Bus
	Neo4j        *neo4jdb.Client
}

// BuildClients connects every external dependency named in SPEC_FULL.md's
// Domain Stack. Required ones (Postgres) fail startup on error; optional
// ones (Redis dashboard bus, Neo4j) log a warning and degrade to nil.
func BuildClients(ctx context.Context, cfg Config, log *logger.Logger) (*Clients, error) {
	gdb, err := db.Connect(log)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		return nil, err
	}

	bridge := notify.New(db.DSN(), log)

	embedder := embedding.NewResilientClient(
		embedding.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIEmbedModel, cfg.OpenAIBaseURL, log),
		embedding.DefaultConfig(),
		log,
	)

	router := llm.NewRouter(log)
	router.Register(llm.Registration{
		Provider: llm.NewOpenAIProvider("openai", cfg.OpenAIAPIKey, cfg.OpenAIChatModel, cfg.OpenAIBaseURL, log),
		Type:     "chat",
		Priority: 100,
		Tags:     []string{"openai", "ask", "summary", "factcheck"},
	})
	if cfg.UncensoredAPIKey != "" {
		router.Register(llm.Registration{
			Provider: llm.NewOpenAIProvider("uncensored", cfg.UncensoredAPIKey, cfg.UncensoredModel, cfg.UncensoredBaseURL, log),
			Type:     "chat",
			Priority: 50,
			Tags:     []string{"smart"},
		})
	}

	var reranker retrieval.Reranker
	if cfg.RerankEnabled {
		reranker = llm.NewCohereRerankProvider(cfg.CohereRerankAPIKey, cfg.CohereRerankModel, "", log)
	}

	clients := &Clients{
		DB: gdb, Notify: bridge, Embedder: embedder, Router: router, Reranker: reranker,
	}

	if cfg.RedisAddr != "" {
		bus, err := dashboard.New(ctx, cfg.RedisAddr, cfg.DashboardChannel, log)
		if err != nil {
			log.Warn("dashboard bus unavailable, disabling", "error", err)
		} else {
			clients.DashboardBus = bus
		}
	}

	if cfg.Neo4jEnabled {
		neoClient, err := neo4jdb.NewFromEnv(log)
		if err != nil {
			log.Warn("neo4j relationship mirror unavailable, disabling", "error", err)
		} else {
			clients.Neo4j = neoClient
		}
	}

	return clients, nil
}

// Close releases every client's underlying connection. Safe to call with
// any subset of optional clients nil.
func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.DashboardBus != nil {
		_ = c.DashboardBus.Close()
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
