package graph

import (
	"testing"

	"github.com/yungbote/chatcortex/internal/platform/logger"
)

func TestPersonKeyFormat(t *testing.T) {
	if got := personKey(-100123, "alice"); got != "-100123:alice" {
		t.Fatalf("personKey = %q, want %q", got, "-100123:alice")
	}
}

func TestPersonKeyDistinguishesChats(t *testing.T) {
	a := personKey(1, "bob")
	b := personKey(2, "bob")
	if a == b {
		t.Fatalf("personKey must differ across chats for the same name: %q == %q", a, b)
	}
}

func TestEnabledFalseForNilMirror(t *testing.T) {
	var m *RelationshipMirror
	if m.Enabled() {
		t.Fatalf("nil *RelationshipMirror must report Enabled() == false")
	}
}

func TestEnabledFalseForNilClient(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New failed: %v", err)
	}
	m := NewRelationshipMirror(nil, log)
	if m.Enabled() {
		t.Fatalf("RelationshipMirror with nil client must report Enabled() == false")
	}
}
