package indexing

import (
	"testing"

	"github.com/yungbote/chatcortex/internal/domain/model"
)

func TestConcatWindowJoinsInOrderWithSeparator(t *testing.T) {
	msgs := []*model.Message{
		{MessageID: 1, AuthorDisplayName: "alice", Text: "hi"},
		{MessageID: 2, AuthorDisplayName: "bob", Text: "hello"},
	}

	text, ids := concatWindow(msgs)

	wantText := "alice: hi\n---\nbob: hello"
	if text != wantText {
		t.Fatalf("concatWindow text = %q, want %q", text, wantText)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
		t.Fatalf("concatWindow ids = %v, want [1 2]", ids)
	}
}

func TestConcatWindowSingleMessageHasNoSeparator(t *testing.T) {
	msgs := []*model.Message{{MessageID: 7, AuthorDisplayName: "carol", Text: "only one"}}
	text, ids := concatWindow(msgs)
	if text != "carol: only one" {
		t.Fatalf("concatWindow text = %q, want %q", text, "carol: only one")
	}
	if len(ids) != 1 || ids[0] != 7 {
		t.Fatalf("concatWindow ids = %v, want [7]", ids)
	}
}

func TestConcatWindowEmpty(t *testing.T) {
	text, ids := concatWindow(nil)
	if text != "" {
		t.Fatalf("concatWindow(nil) text = %q, want empty", text)
	}
	if len(ids) != 0 {
		t.Fatalf("concatWindow(nil) ids = %v, want empty", ids)
	}
}
