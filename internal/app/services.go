package app

import (
	"github.com/yungbote/chatcortex/internal/data/graph"
	"github.com/yungbote/chatcortex/internal/indexing"
	"github.com/yungbote/chatcortex/internal/ingestion"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/profile"
	"github.com/yungbote/chatcortex/internal/retrieval"
)

const (
	contextWindowSize          = 6
	contextWindowStride        = 3
	questionsPerMessage        = 3
)

// Services holds every domain-logic component above the repo layer.
type Services struct {
	Orchestrator *indexing.Orchestrator
	Engine       *retrieval.Engine
	Answerer     *retrieval.AnswerGenerator
	Pipeline     *ingestion.Pipeline
	Extractor    *profile.Extractor
	Generator    *profile.Generator
	Composer     *profile.Composer
	RelGraph     *graph.RelationshipMirror
}

func BuildServices(cfg Config, clients *Clients, repos *Repos, queues *Queues, prompts retrieval.PromptProvider, log *logger.Logger) *Services {
	relGraph := graph.NewRelationshipMirror(clients.Neo4j, log)

	handlers := []indexing.Handler{
		indexing.NewMessageEmbeddingHandler(repos.Messages, repos.Embeddings, clients.Embedder, cfg.MinMessageLength, log),
		indexing.NewContextEmbeddingHandler(repos.Chats, repos.Messages, repos.Embeddings, clients.Embedder, contextWindowSize, contextWindowStride, log),
		indexing.NewQuestionGenerationHandler(queues.QuestionGeneration, repos.Messages, repos.Embeddings, clients.Embedder, clients.Router, questionsPerMessage, log),
	}
	orchestrator := indexing.NewOrchestrator(handlers, indexing.DefaultConfig(), log)

	engine := retrieval.NewEngine(
		repos.Messages, repos.Aliases, repos.Embeddings, clients.Embedder, clients.Router, clients.Reranker,
		retrieval.Config{
			VectorTopK:  cfg.VectorTopK,
			LexicalTopL: cfg.LexicalTopL,
			RerankTopM:  cfg.RerankTopM,
			ScoreFloor:  cfg.ScoreFloor,
			TokenBudget: cfg.TokenBudget,
		},
		log,
	)
	answerer := retrieval.NewAnswerGenerator(clients.Router, prompts, log)

	pipeline := ingestion.NewPipeline(
		repos.Chats, repos.Messages, repos.Aliases, repos.Relationships, repos.Settings,
		queues.Message, queues.QuestionGeneration, relGraph, cfg.MinMessageLength, log,
	)

	extractor := profile.NewExtractor(repos.Facts, clients.Router, log)
	generator := profile.NewGenerator(repos.Profiles, repos.Facts, repos.Messages, clients.Router, log)
	composer := profile.NewComposer(repos.Profiles, repos.Facts, repos.Relationships, repos.Memory)

	return &Services{
		Orchestrator: orchestrator,
		Engine:       engine,
		Answerer:     answerer,
		Pipeline:     pipeline,
		Extractor:    extractor,
		Generator:    generator,
		Composer:     composer,
		RelGraph:     relGraph,
	}
}
