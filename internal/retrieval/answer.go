package retrieval

import (
	"context"
	"strings"

	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

// PromptProvider resolves a system prompt by command/mode/language (the
// command-prompt text catalogue, an external collaborator per spec.md §1;
// backed in this repo by platform/promptstyle + the prompt_settings table).
type PromptProvider interface {
	SystemPrompt(command, mode, language string) string
}

// AnswerGenerator composes the system+user prompt and calls the LLM router
// (spec.md §4.6 step 8).
type AnswerGenerator struct {
	router *llm.Router
	prompts PromptProvider
	log    *logger.Logger
}

func NewAnswerGenerator(router *llm.Router, prompts PromptProvider, log *logger.Logger) *AnswerGenerator {
	return &AnswerGenerator{router: router, prompts: prompts, log: log.With("component", "retrieval.AnswerGenerator")}
}

// AnswerInput bundles everything the user prompt needs.
type AnswerInput struct {
	Query           string
	MemoryFacts     string
	RelationshipGraph string
	Context         string
	AskerDisplay    string
	Mode            string
	Language        string
	Command         string
	PreferredTag    string
	Confidence      ConfidenceEval
}

func (g *AnswerGenerator) Generate(ctx context.Context, in AnswerInput) (string, error) {
	system := g.prompts.SystemPrompt(in.Command, in.Mode, in.Language)

	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(in.Query)
	b.WriteString("\n\nAsker: ")
	b.WriteString(in.AskerDisplay)
	if in.MemoryFacts != "" {
		b.WriteString("\n\nKnown facts about the asker:\n")
		b.WriteString(in.MemoryFacts)
	}
	if in.RelationshipGraph != "" {
		b.WriteString("\n\nKnown relationships:\n")
		b.WriteString(in.RelationshipGraph)
	}
	if in.Context != "" {
		b.WriteString("\n\nRetrieved chat context:\n")
		b.WriteString(in.Context)
	}

	res, err := g.router.GenerateText(ctx, in.PreferredTag, system, b.String())
	if err != nil {
		return "", err
	}

	content := res.Content
	if in.Confidence.Label == ConfidenceLow || in.Confidence.Label == ConfidenceNone {
		content += "\n\n<i>Низкая уверенность в ответе: найденный контекст может быть нерелевантным.</i>"
	}

	return SanitizeHTML(content), nil
}
