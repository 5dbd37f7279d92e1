// Package promptstyle implements the command-prompt text catalogue
// (spec.md §9: "keyed by command:mode:language with fallback
// command:mode then command. A registry loads defaults at startup; a
// settings store may override any key at runtime"). Defaults are
// embedded YAML, following the teacher's go:embed-plus-yaml.v3 pattern
// for declarative spec files (see jobs/pipeline/learning_build/spec.go).
package promptstyle

import (
	"context"
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
	"github.com/yungbote/chatcortex/internal/platform/logger"
)

//go:embed prompts.yaml
var defaultPromptsYAML []byte

type yamlPromptCatalogue struct {
	Prompts []yamlPromptEntry `yaml:"prompts"`
}

type yamlPromptEntry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

func loadDefaults(log *logger.Logger) map[string]string {
	var cat yamlPromptCatalogue
	out := make(map[string]string)
	if err := yaml.Unmarshal(defaultPromptsYAML, &cat); err != nil {
		if log != nil {
			log.Error("promptstyle: embedded catalogue failed to parse", "error", err)
		}
		return out
	}
	for _, e := range cat.Prompts {
		key := strings.TrimSpace(e.Key)
		if key == "" {
			continue
		}
		out[key] = e.Value
	}
	return out
}

// Registry resolves a system prompt by command/mode/language, implementing
// retrieval.PromptProvider. Fallback order (spec.md §9):
// "command:mode:language" -> "command:mode" -> "command".
type Registry struct {
	defaults map[string]string
	settings repos.SettingsRepo
	log      *logger.Logger
}

func NewRegistry(settings repos.SettingsRepo, log *logger.Logger) *Registry {
	l := log.With("component", "promptstyle.Registry")
	return &Registry{defaults: loadDefaults(l), settings: settings, log: l}
}

// SystemPrompt resolves the prompt text for one command/mode/language
// triple. A settings-store override at any fallback key wins over the
// embedded default for that same key; the store is consulted first at
// the most specific key and only falls back to a coarser key when the
// store has no row at all for it (not merely an empty value).
func (r *Registry) SystemPrompt(command, mode, language string) string {
	command = strings.ToLower(strings.TrimSpace(command))
	mode = strings.ToLower(strings.TrimSpace(mode))
	language = strings.ToLower(strings.TrimSpace(language))

	keys := candidateKeys(command, mode, language)
	dc := dbctx.Context{Ctx: context.Background()}
	for _, key := range keys {
		if r.settings != nil {
			if v, ok, err := r.settings.GetPrompt(dc, key); err == nil && ok {
				return v
			} else if err != nil {
				r.log.Warn("prompt settings lookup failed, falling back", "key", key, "error", err)
			}
		}
		if v, ok := r.defaults[key]; ok {
			return v
		}
	}
	return ""
}

func candidateKeys(command, mode, language string) []string {
	var keys []string
	if command != "" && mode != "" && language != "" {
		keys = append(keys, command+":"+mode+":"+language)
	}
	if command != "" && mode != "" {
		keys = append(keys, command+":"+mode)
	}
	if command != "" {
		keys = append(keys, command)
	}
	return keys
}
