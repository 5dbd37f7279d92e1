package command

import (
	"testing"

	"github.com/yungbote/chatcortex/internal/domain/model"
)

func TestClampWithinRange(t *testing.T) {
	if got := clamp(7, minTruthCount, maxTruthCount); got != 7 {
		t.Fatalf("clamp(7) = %d, want 7", got)
	}
}

func TestClampBelowMinimum(t *testing.T) {
	cases := []int{0, -5, -100}
	for _, n := range cases {
		if got := clamp(n, minTruthCount, maxTruthCount); got != minTruthCount {
			t.Fatalf("clamp(%d) = %d, want %d", n, got, minTruthCount)
		}
	}
}

func TestClampAboveMaximum(t *testing.T) {
	if got := clamp(100, minTruthCount, maxTruthCount); got != maxTruthCount {
		t.Fatalf("clamp(100) = %d, want %d", got, maxTruthCount)
	}
}

// TestParseTruthCountNonPositiveFallsBackToDefault covers spec.md §8's
// boundary test: "/truth 0", "/truth -5" and "/truth abc" must all resolve
// to the default count, not to minTruthCount via clamp.
func TestParseTruthCountNonPositiveFallsBackToDefault(t *testing.T) {
	cases := []string{"0", "-5", "-100", "abc"}
	for _, arg := range cases {
		if got := parseTruthCount(arg); got != defaultTruthCount {
			t.Fatalf("parseTruthCount(%q) = %d, want %d", arg, got, defaultTruthCount)
		}
	}
}

func TestParseTruthCountBlankUsesDefault(t *testing.T) {
	if got := parseTruthCount("  "); got != defaultTruthCount {
		t.Fatalf("parseTruthCount(blank) = %d, want %d", got, defaultTruthCount)
	}
}

func TestParseTruthCountWithinRangePassesThrough(t *testing.T) {
	if got := parseTruthCount("7"); got != 7 {
		t.Fatalf("parseTruthCount(7) = %d, want 7", got)
	}
}

func TestParseTruthCountAboveMaximumClamps(t *testing.T) {
	if got := parseTruthCount("100"); got != maxTruthCount {
		t.Fatalf("parseTruthCount(100) = %d, want %d", got, maxTruthCount)
	}
}

func TestIsAdminRequiresPrivateChat(t *testing.T) {
	d := &Dispatcher{admin: AdminIdentity{ID: 42, Username: "owner"}}

	if d.IsAdmin(Input{ChatType: "group", UserID: 42}) {
		t.Fatalf("admin id in a group chat must not be treated as admin")
	}
	if !d.IsAdmin(Input{ChatType: model.ChatTypePrivate, UserID: 42}) {
		t.Fatalf("admin id in a private chat should be treated as admin")
	}
	if d.IsAdmin(Input{ChatType: model.ChatTypePrivate, UserID: 1}) {
		t.Fatalf("non-admin id in a private chat must not be treated as admin")
	}
}

func TestIsAdminMatchesByUsernameCaseInsensitive(t *testing.T) {
	d := &Dispatcher{admin: AdminIdentity{Username: "Owner"}}
	if !d.IsAdmin(Input{ChatType: model.ChatTypePrivate, AskerUsername: "owner"}) {
		t.Fatalf("username match should be case-insensitive")
	}
}
