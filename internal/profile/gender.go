// Package profile implements fact extraction, nightly profile generation,
// gender detection, and the memory-context composer (spec.md §4.9).
package profile

import (
	"regexp"
	"strings"
)

var femaleNameEndings = []string{"а", "я", "ia", "a"}
var maleNameEndings = []string{"ов", "ин", "ский", "o", "us"}

// past-tense verb endings / gendered self-referents in first person.
var femaleVerbPattern = regexp.MustCompile(`(?i)\p{L}+(?:ла|лась)(?:\P{L}|$)`)
var maleVerbPattern = regexp.MustCompile(`(?i)\p{L}+(?:л|лся)(?:\P{L}|$)`)

// DetectFromName is the fast dictionary+ending heuristic over a display
// name, typical confidence >= 0.6 (spec.md §4.9).
func DetectFromName(displayName string) (gender string, confidence float64) {
	name := strings.ToLower(strings.TrimSpace(displayName))
	if name == "" {
		return "unknown", 0
	}
	first := strings.Fields(name)[0]

	for _, suf := range femaleNameEndings {
		if strings.HasSuffix(first, suf) && len(first) > len(suf)+1 {
			return "female", 0.6
		}
	}
	for _, suf := range maleNameEndings {
		if strings.HasSuffix(first, suf) {
			return "male", 0.6
		}
	}
	return "unknown", 0
}

// DetectFromMessages raises confidence via pattern match over recent
// messages: past-tense verb endings and gendered self-referents.
func DetectFromMessages(messages []string) (gender string, confidence float64) {
	femaleHits, maleHits := 0, 0
	for _, m := range messages {
		femaleHits += len(femaleVerbPattern.FindAllString(m, -1))
		maleHits += len(maleVerbPattern.FindAllString(m, -1))
	}
	total := femaleHits + maleHits
	if total == 0 {
		return "unknown", 0
	}
	if femaleHits > maleHits {
		return "female", 0.5 + 0.4*float64(femaleHits)/float64(total)
	}
	return "male", 0.5 + 0.4*float64(maleHits)/float64(total)
}

// Resolve combines both signals, taking whichever has higher confidence,
// matching spec.md §4.9's "never overwrite a higher-confidence value" at
// the detection stage already (the repo layer enforces it again at write
// time, see repos.ProfileRepo.UpdateGenderIfMoreConfident).
func Resolve(displayName string, recentMessages []string) (gender string, confidence float64) {
	g1, c1 := DetectFromName(displayName)
	g2, c2 := DetectFromMessages(recentMessages)
	if c2 > c1 {
		return g2, c2
	}
	return g1, c1
}
