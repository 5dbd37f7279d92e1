package retrieval

import "testing"

func TestFuseRankedMergesDuplicatesAcrossLists(t *testing.T) {
	listA := []Candidate{
		{ChatID: 1, MessageID: 10, Score: 0.9},
		{ChatID: 1, MessageID: 11, Score: 0.8},
	}
	listB := []Candidate{
		{ChatID: 1, MessageID: 11, Score: 0.85, Lexical: true},
		{ChatID: 1, MessageID: 12, Score: 0.7},
	}

	out := fuseRanked([][]Candidate{listA, listB})

	byID := make(map[int64]Candidate, len(out))
	for _, c := range out {
		byID[c.MessageID] = c
	}

	if len(out) != 3 {
		t.Fatalf("expected 3 distinct candidates, got %d", len(out))
	}
	merged, ok := byID[11]
	if !ok {
		t.Fatalf("message 11 missing from fused output")
	}
	if !merged.Lexical {
		t.Fatalf("message 11 should carry the lexical flag contributed by listB")
	}
	if merged.Score != 0.85 {
		t.Fatalf("message 11 score = %v, want the higher of the two contributing scores (0.85)", merged.Score)
	}
}

func TestFuseRankedOrdersByRRFScoreDescending(t *testing.T) {
	listA := []Candidate{
		{ChatID: 1, MessageID: 1, Score: 0.5},
		{ChatID: 1, MessageID: 2, Score: 0.4},
	}
	listB := []Candidate{
		{ChatID: 1, MessageID: 2, Score: 0.4},
		{ChatID: 1, MessageID: 1, Score: 0.5},
	}

	out := fuseRanked([][]Candidate{listA, listB})
	if len(out) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].RRFScore > out[i-1].RRFScore {
			t.Fatalf("output not sorted by RRF score descending at index %d", i)
		}
	}
}

func TestFuseRankedEmptyInput(t *testing.T) {
	if out := fuseRanked(nil); len(out) != 0 {
		t.Fatalf("expected empty output for no input lists, got %d", len(out))
	}
}
