package ingestion

import (
	"regexp"
	"strings"
)

var nicknamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:эй|хэй|hey)[, ]+([A-ZА-Я][a-zа-яA-Za-z]{1,20})[,!]?`),
	regexp.MustCompile(`(?i)^([A-ZА-Я][a-zа-яA-Za-z]{1,20})[,:]\s`),
	regexp.MustCompile(`(?i)^([A-ZА-Я][a-zа-яA-Za-z]{1,20})\s`),
}

var nicknameStopWords = map[string]bool{
	"да": true, "нет": true, "ну": true, "вот": true, "это": true,
	"the": true, "and": true, "but": true, "ok": true, "okay": true,
}

const (
	nicknameMinLen = 2
	nicknameMaxLen = 20
)

// ExtractNickname only acts on replies to another known user (isReply must
// be true), applying a small set of address patterns; candidates are
// vetoed against a stop-word list and length bounds (spec.md §4.3).
func ExtractNickname(text string, isReply bool) (string, bool) {
	if !isReply {
		return "", false
	}
	text = strings.TrimSpace(text)
	for _, pattern := range nicknamePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		candidate := m[1]
		if len(candidate) < nicknameMinLen || len(candidate) > nicknameMaxLen {
			continue
		}
		if nicknameStopWords[strings.ToLower(candidate)] {
			continue
		}
		return candidate, true
	}
	return "", false
}
