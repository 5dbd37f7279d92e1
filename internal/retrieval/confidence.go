package retrieval

import "fmt"

// evaluateConfidence derives the {High, Medium, Low, None} label from best
// similarity score bucket, the score gap between #1 and #2, the presence of
// a lexical match, and the surviving-candidate count (spec.md §4.6 step 6).
func evaluateConfidence(candidates []Candidate, rerankChanged bool) ConfidenceEval {
	if len(candidates) == 0 {
		return ConfidenceEval{Label: ConfidenceNone, Reasons: []string{"no candidates survived retrieval"}}
	}

	best := candidates[0].Score
	var reasons []string

	label := bucketLabel(best)
	reasons = append(reasons, fmt.Sprintf("best score %.3f bucketed to %s", best, label))

	if len(candidates) > 1 {
		gap := candidates[0].Score - candidates[1].Score
		if gap >= 0.15 {
			reasons = append(reasons, fmt.Sprintf("score gap %.3f is highly distinctive, keeping label", gap))
		} else if label == ConfidenceMedium {
			label = ConfidenceLow
			reasons = append(reasons, fmt.Sprintf("score gap %.3f is narrow, downgrading to low", gap))
		}
	}

	hasLexical := false
	for _, c := range candidates {
		if c.Lexical {
			hasLexical = true
			break
		}
	}
	if hasLexical {
		reasons = append(reasons, "at least one full-text lexical match present")
	}

	reasons = append(reasons, fmt.Sprintf("%d candidates survived reranking", len(candidates)))
	if rerankChanged {
		reasons = append(reasons, "rerank changed candidate order")
	}

	return ConfidenceEval{Label: label, Reasons: reasons}
}

func bucketLabel(score float64) ConfidenceLabel {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.75:
		return ConfidenceMedium
	case score >= 0.65:
		return ConfidenceLow
	case score >= 0.50:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
