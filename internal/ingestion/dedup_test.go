package ingestion

import "testing"

func TestDedupFilterDropsRepeatWithinTTL(t *testing.T) {
	f := NewDedupFilter()
	text := "this message is long enough to dedup"

	if f.Seen(1, 100, text) {
		t.Fatalf("first occurrence should not be seen")
	}
	if !f.Seen(1, 100, text) {
		t.Fatalf("second occurrence within TTL should be seen")
	}
}

func TestDedupFilterIgnoresShortMessages(t *testing.T) {
	f := NewDedupFilter()
	if f.Seen(1, 100, "hi") {
		t.Fatalf("short message should never be flagged as a duplicate")
	}
	if f.Seen(1, 100, "hi") {
		t.Fatalf("repeated short message should still not dedup")
	}
}

func TestDedupFilterDistinguishesByChatAndUser(t *testing.T) {
	f := NewDedupFilter()
	text := "this message is long enough to dedup"

	f.Seen(1, 100, text)
	if f.Seen(2, 100, text) {
		t.Fatalf("same text in a different chat must not be treated as a duplicate")
	}
	if f.Seen(1, 200, text) {
		t.Fatalf("same text from a different author must not be treated as a duplicate")
	}
}

func TestDedupFilterNormalizesCaseAndWhitespace(t *testing.T) {
	f := NewDedupFilter()
	if f.Seen(1, 100, "  Hello There World  ") {
		t.Fatalf("first occurrence should not be seen")
	}
	if !f.Seen(1, 100, "hello there world") {
		t.Fatalf("case/whitespace variant within TTL should be treated as the same message")
	}
}
