package retrieval

import "testing"

func TestEvaluateConfidenceNoCandidates(t *testing.T) {
	eval := evaluateConfidence(nil, false)
	if eval.Label != ConfidenceNone {
		t.Fatalf("label = %v, want none", eval.Label)
	}
}

func TestEvaluateConfidenceHighScoreDistinctiveGap(t *testing.T) {
	candidates := []Candidate{
		{Score: 0.92},
		{Score: 0.60},
	}
	eval := evaluateConfidence(candidates, false)
	if eval.Label != ConfidenceHigh {
		t.Fatalf("label = %v, want high", eval.Label)
	}
}

func TestEvaluateConfidenceNarrowGapDowngradesMediumToLow(t *testing.T) {
	candidates := []Candidate{
		{Score: 0.78},
		{Score: 0.76},
	}
	eval := evaluateConfidence(candidates, false)
	if eval.Label != ConfidenceLow {
		t.Fatalf("label = %v, want low (narrow gap should downgrade medium)", eval.Label)
	}
}

func TestEvaluateConfidenceWideGapKeepsMedium(t *testing.T) {
	candidates := []Candidate{
		{Score: 0.80},
		{Score: 0.40},
	}
	eval := evaluateConfidence(candidates, false)
	if eval.Label != ConfidenceMedium {
		t.Fatalf("label = %v, want medium (gap is wide enough to keep the bucket label)", eval.Label)
	}
}

func TestBucketLabelBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  ConfidenceLabel
	}{
		{0.85, ConfidenceHigh},
		{0.849, ConfidenceMedium},
		{0.75, ConfidenceMedium},
		{0.749, ConfidenceLow},
		{0.50, ConfidenceLow},
		{0.49, ConfidenceNone},
	}
	for _, c := range cases {
		if got := bucketLabel(c.score); got != c.want {
			t.Fatalf("bucketLabel(%v) = %v, want %v", c.score, got, c.want)
		}
	}
}
