package retrieval

import (
	"context"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/platform/embedding"
	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// Engine answers search(chat, query) per spec.md §4.6.
type Engine struct {
	messages   repos.MessageRepo
	aliases    repos.AliasRepo
	embeddings repos.EmbeddingRepo

	intent    *intentClassifier
	expander  *queryExpander
	gatherer  *candidateGatherer
	rerank    *rerankStage

	tokenBudget int
	log         *logger.Logger
}

// Config tunes engine-level parameters beyond its component defaults.
type Config struct {
	VectorTopK   int
	LexicalTopL  int
	RerankTopM   int
	ScoreFloor   float64
	TokenBudget  int
}

func NewEngine(
	messages repos.MessageRepo,
	aliases repos.AliasRepo,
	embeddings repos.EmbeddingRepo,
	embedder embedding.Provider,
	router *llm.Router,
	reranker Reranker,
	cfg Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		messages:   messages,
		aliases:    aliases,
		embeddings: embeddings,
		intent:     newIntentClassifier(router, log),
		expander:   newQueryExpander(router, log),
		gatherer:   newCandidateGatherer(embeddings, embedder, cfg.VectorTopK, cfg.LexicalTopL, log),
		rerank:     newRerankStage(reranker, cfg.RerankTopM, cfg.ScoreFloor, log),
		tokenBudget: cfg.TokenBudget,
		log:        log.With("component", "retrieval.Engine"),
	}
}

// Search runs the full hybrid pipeline: intent -> expansion -> strategy
// selection -> gather -> rerank -> confidence.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	var debug []string

	intentResult := e.intent.Classify(ctx, req)
	debug = append(debug, "intent="+string(intentResult.Intent))

	variants := e.expander.Expand(ctx, req.Query)
	debug = append(debug, "query_variants="+join(variants))

	var candidates []Candidate
	var err error

	switch intentResult.Intent {
	case IntentPersonal:
		targets := resolveTargets(ctx, e.aliases, req.ChatID, intentResult.MentionedPeople)
		candidates, err = e.gatherer.gatherPersonal(ctx, req.ChatID, variants, targets)
	case IntentContextual:
		candidates, err = e.gatherer.gatherContextual(ctx, req.ChatID, variants)
	default:
		candidates, err = e.gatherer.gatherGeneral(ctx, req.ChatID, variants)
	}
	if err != nil {
		return SearchResult{}, err
	}

	reranked, changed := e.rerank.Apply(ctx, req.Query, candidates)
	confidence := evaluateConfidence(reranked, changed)

	return SearchResult{
		Intent:     intentResult,
		Candidates: reranked,
		Confidence: confidence,
		DebugLines: debug,
	}, nil
}

// BuildContext exposes the context builder for callers (the /ask command
// worker) that need formatted text from a SearchResult.
func (e *Engine) BuildContext(ctx context.Context, chatID int64, candidates []Candidate) []ContextChunk {
	return buildContext(ctx, e.messages, chatID, candidates, e.tokenBudget)
}

// FormatContext renders context chunks (as returned by BuildContext) into
// the plain-text block the answer generator's user prompt embeds.
func FormatContext(chunks []ContextChunk) string {
	return formatContext(chunks)
}

func join(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += " | "
		}
		out += s
	}
	return out
}

// Gate implements the confidence gate (spec.md §4.7): before invoking the
// LLM, decide whether to suppress the call (no evidence), proceed with a
// warning (low confidence but non-empty), or proceed normally. /smart
// always short-circuits to SkipRetrieval.
type GateDecision int

const (
	GateNotFound GateDecision = iota
	GateProceedWithWarning
	GateProceedNormally
	GateSkipRetrieval
)

func Gate(command string, result SearchResult) GateDecision {
	if command == "smart" {
		return GateSkipRetrieval
	}
	if len(result.Candidates) == 0 {
		return GateNotFound
	}
	if result.Confidence.Label == ConfidenceLow || result.Confidence.Label == ConfidenceNone {
		return GateProceedWithWarning
	}
	return GateProceedNormally
}
