package promptstyle

import (
	"testing"

	"github.com/yungbote/chatcortex/internal/platform/logger"
)

func TestCandidateKeysFallbackOrder(t *testing.T) {
	keys := candidateKeys("ask", "json", "ru")
	want := []string{"ask:json:ru", "ask:json", "ask"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got %v, want %v", keys, want)
		}
	}
}

func TestCandidateKeysWithoutModeOrLanguage(t *testing.T) {
	keys := candidateKeys("ask", "", "")
	if len(keys) != 1 || keys[0] != "ask" {
		t.Fatalf("got %v, want [ask]", keys)
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New failed: %v", err)
	}
	return NewRegistry(nil, log)
}

func TestSystemPromptFallsBackToCommandModeDefault(t *testing.T) {
	r := newTestRegistry(t)
	got := r.SystemPrompt("ask", "json", "ru")
	if got == "" {
		t.Fatalf("expected ask:json default to resolve, got empty string")
	}
}

func TestSystemPromptUnknownCommandReturnsEmpty(t *testing.T) {
	r := newTestRegistry(t)
	if got := r.SystemPrompt("nonexistent", "", ""); got != "" {
		t.Fatalf("expected empty string for unknown command, got %q", got)
	}
}

func TestSystemPromptIsCaseInsensitive(t *testing.T) {
	r := newTestRegistry(t)
	lower := r.SystemPrompt("ask", "", "")
	upper := r.SystemPrompt("ASK", "", "")
	if lower == "" || lower != upper {
		t.Fatalf("expected case-insensitive lookup to match: lower=%q upper=%q", lower, upper)
	}
}
