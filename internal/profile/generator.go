package profile

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/llm"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

const (
	defaultMinMessages = 20
	defaultSampleSize  = 80
	defaultTopFacts    = 15
)

const profileSystemPrompt = `Given a sample of a user's chat messages and their top known facts, produce a
structured profile. Reply with strict JSON:
{"summary": "...", "communication_style": "...", "role_label": "...",
 "interests": ["..."], "traits": ["..."], "roast_material": ["..."]}`

type profileLLMPayload struct {
	Summary            string   `json:"summary"`
	CommunicationStyle string   `json:"communication_style"`
	RoleLabel          string   `json:"role_label"`
	Interests          []string `json:"interests"`
	Traits             []string `json:"traits"`
	RoastMaterial      []string `json:"roast_material"`
}

// Generator runs the daily profile-generation pass (spec.md §4.9): for
// each active user it samples messages + top facts and asks the LLM for a
// structured profile blob.
type Generator struct {
	profiles repos.ProfileRepo
	facts    repos.FactRepo
	messages repos.MessageRepo
	router   *llm.Router
	log      *logger.Logger

	minMessages int64
	sampleSize  int
	topFacts    int
}

func NewGenerator(profiles repos.ProfileRepo, facts repos.FactRepo, messages repos.MessageRepo, router *llm.Router, log *logger.Logger) *Generator {
	return &Generator{
		profiles: profiles, facts: facts, messages: messages, router: router,
		log: log.With("component", "profile.Generator"),
		minMessages: defaultMinMessages, sampleSize: defaultSampleSize, topFacts: defaultTopFacts,
	}
}

// RunForChat generates profiles for every active user in chatID that meets
// the active-user threshold (spec.md §4.9).
func (g *Generator) RunForChat(ctx context.Context, chatID int64, since time.Time) error {
	dc := dbctx.Context{Ctx: ctx}
	userIDs, err := g.profiles.ListActiveUsers(dc, chatID, g.minMessages, since)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := g.generateOne(ctx, chatID, userID); err != nil {
			g.log.Error("profile generation failed", "chat_id", chatID, "user_id", userID, "error", err)
		}
	}
	return nil
}

func (g *Generator) generateOne(ctx context.Context, chatID, userID int64) error {
	dc := dbctx.Context{Ctx: ctx}

	sample, err := g.messages.SampleByChatAndUser(dc, chatID, userID, g.sampleSize)
	if err != nil {
		return err
	}
	topFacts, err := g.facts.TopByConfidence(dc, chatID, userID, g.topFacts)
	if err != nil {
		return err
	}
	messageCount, err := g.messages.CountByChatAndUser(dc, chatID, userID)
	if err != nil {
		return err
	}

	var transcript string
	var displayName string
	for _, m := range sample {
		transcript += m.Text + "\n"
		if displayName == "" {
			displayName = m.AuthorDisplayName
		}
	}
	var factLines string
	var recentTexts []string
	for _, f := range topFacts {
		factLines += f.FactText + "\n"
	}
	for _, m := range sample {
		recentTexts = append(recentTexts, m.Text)
	}

	res, err := g.router.GenerateJSON(ctx, "", profileSystemPrompt, "Messages:\n"+transcript+"\nFacts:\n"+factLines)
	if err != nil {
		return err
	}

	var parsed profileLLMPayload
	if err := json.Unmarshal([]byte(res.Content), &parsed); err != nil {
		g.log.Warn("profile generation returned non-JSON", "chat_id", chatID, "user_id", userID)
		return nil
	}

	existing, err := g.profiles.Get(dc, chatID, userID)
	if err != nil {
		return err
	}
	version := 1
	if existing != nil {
		version = existing.ProfileVersion + 1
	}

	gender, confidence := Resolve(displayName, recentTexts)
	if err := g.profiles.UpdateGenderIfMoreConfident(dc, chatID, userID, gender, confidence); err != nil {
		g.log.Error("gender update failed", "error", err)
	}

	interests, _ := json.Marshal(parsed.Interests)
	traits, _ := json.Marshal(parsed.Traits)
	roast, _ := json.Marshal(parsed.RoastMaterial)

	histogram := make(map[string]int, 24)
	for _, m := range sample {
		histogram[m.CreatedAt.UTC().Format("15")]++
	}
	activity, _ := json.Marshal(histogram)

	return g.profiles.Upsert(dc, &model.UserProfile{
		ChatID: chatID, UserID: userID, DisplayName: displayName,
		MessageCount:       messageCount,
		ActivityByHour:     datatypes.JSON(activity),
		Summary:            parsed.Summary,
		CommunicationStyle: parsed.CommunicationStyle,
		RoleLabel:          parsed.RoleLabel,
		Interests:          datatypes.JSON(interests),
		Traits:             datatypes.JSON(traits),
		RoastMaterial:      datatypes.JSON(roast),
		ProfileVersion:     version,
	})
}
