package retrieval

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

type intentClassifier struct {
	router *llm.Router
	log    *logger.Logger
}

func newIntentClassifier(router *llm.Router, log *logger.Logger) *intentClassifier {
	return &intentClassifier{router: router, log: log.With("component", "retrieval.intentClassifier")}
}

type llmIntentPayload struct {
	Intent          string   `json:"intent"`
	MentionedPeople []string `json:"mentioned_people"`
	Entities        []string `json:"entities"`
	TemporalText    string   `json:"temporal_text"`
	TemporalDays    int      `json:"temporal_days"`
	Confidence      float64  `json:"confidence"`
}

const intentSystemPrompt = `Classify the user's question. Reply with strict JSON:
{"intent": "personal|contextual|general", "mentioned_people": ["..."], "entities": ["..."], "temporal_text": "...", "temporal_days": 0, "confidence": 0.0}`

// Classify asks the LLM router for a structured intent; on any failure it
// falls back to the heuristic personal-target detector (spec.md §4.6 step 1).
func (c *intentClassifier) Classify(ctx context.Context, req SearchRequest) IntentResult {
	res, err := c.router.GenerateJSON(ctx, "", intentSystemPrompt, req.Query)
	if err == nil {
		var parsed llmIntentPayload
		if jerr := json.Unmarshal([]byte(res.Content), &parsed); jerr == nil && parsed.Intent != "" {
			return IntentResult{
				Intent:          Intent(parsed.Intent),
				MentionedPeople: parsed.MentionedPeople,
				Entities:        parsed.Entities,
				TemporalText:    parsed.TemporalText,
				TemporalDays:    parsed.TemporalDays,
				Confidence:      parsed.Confidence,
			}
		}
	}
	c.log.Warn("intent classification fell back to heuristic", "error", err)
	return heuristicClassify(req)
}

// heuristicClassify implements the fallback personal-target detector:
// "@name" mentions or a self-reference against the asker's own identity.
func heuristicClassify(req SearchRequest) IntentResult {
	mentions := mentionPattern.FindAllStringSubmatch(req.Query, -1)
	people := make([]string, 0, len(mentions))
	for _, m := range mentions {
		people = append(people, m[1])
	}

	lower := strings.ToLower(req.Query)
	selfRef := strings.Contains(lower, "я ") || strings.Contains(lower, "мне ")
	if req.AskerDisplay != "" && strings.Contains(lower, strings.ToLower(req.AskerDisplay)) {
		selfRef = true
	}
	if req.AskerUsername != "" && strings.Contains(lower, strings.ToLower(req.AskerUsername)) {
		selfRef = true
	}

	if len(people) > 0 {
		return IntentResult{Intent: IntentPersonal, MentionedPeople: people, Confidence: 0.6}
	}
	if selfRef && req.AskerDisplay != "" {
		return IntentResult{Intent: IntentPersonal, MentionedPeople: []string{req.AskerDisplay}, Confidence: 0.55}
	}
	return IntentResult{Intent: IntentGeneral, Confidence: 0.5}
}
