package ingestion

import (
	"regexp"
	"strings"
)

// ExtractedRelationship is one (person, label, confidence) yielded by a
// deterministic pattern match over message text (spec.md §4.3).
type ExtractedRelationship struct {
	PersonName string
	Type       string
	Label      string
	Confidence float64
}

type relationshipPattern struct {
	re         *regexp.Regexp
	relType    string
	confidence float64
}

// Patterns cover: introduction ("это моя жена Аня"), possessive
// ("моя жена Аня"), reverse-intro ("Аня - моя жена"), instrumental case
// ("я с женой Аней"). Each is intentionally narrow and precision-biased;
// recall comes from volume of messages, not pattern breadth.
var relationshipPatterns = []relationshipPattern{
	{regexp.MustCompile(`(?i)это\s+мо[йяе]\s+(жена|муж|сестра|брат|мама|папа|друг|подруга|коллега)\s+([A-ZА-Я][a-zа-я]{1,20})`), "", 0.75},
	{regexp.MustCompile(`(?i)мо[йяе]\s+(жена|муж|сестра|брат|мама|папа|друг|подруга|коллега)\s+([A-ZА-Я][a-zа-я]{1,20})`), "", 0.65},
	{regexp.MustCompile(`(?i)([A-ZА-Я][a-zа-я]{1,20})\s*[-–—]\s*мо[йяе]\s+(жена|муж|сестра|брат|мама|папа|друг|подруга|коллега)`), "", 0.6},
	{regexp.MustCompile(`(?i)я\s+с\s+(жен[оы]й|муж[ае]м|сестр[оы]й|брат[ао]м)\s+([A-ZА-Я][a-zа-я]{1,20})`), "", 0.55},
}

var labelToType = map[string]string{
	"жена": "spouse", "муж": "spouse", "женой": "spouse", "мужем": "spouse",
	"сестра": "sibling", "сестрой": "sibling", "брат": "sibling", "братом": "sibling",
	"мама": "parent", "папа": "parent",
	"друг": "friend", "подруга": "friend",
	"коллега": "colleague",
}

// Extract runs every compiled pattern against text and returns all matches.
func Extract(text string) []ExtractedRelationship {
	var out []ExtractedRelationship
	for _, p := range relationshipPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		var label, name string
		if len(m) == 3 {
			if isCapitalized(m[1]) {
				name, label = m[1], m[2]
			} else {
				label, name = m[1], m[2]
			}
		}
		relType := labelToType[strings.ToLower(label)]
		if relType == "" || name == "" {
			continue
		}
		out = append(out, ExtractedRelationship{PersonName: name, Type: relType, Label: label, Confidence: p.confidence})
	}
	return out
}

func isCapitalized(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return r >= 'A' && r <= 'Z' || r >= 'А' && r <= 'Я'
}
