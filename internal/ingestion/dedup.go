// Package ingestion implements the message ingestion pipeline (spec.md
// §4.3): dedup filter, group-chat gating, idempotent persistence, and
// fire-and-forget extraction/enqueue tasks.
package ingestion

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	dedupTTL       = 60 * time.Second
	dedupMinLength = 10
	dedupMaxKeyLen = 500
)

// DedupFilter is an in-memory, per-(chat,user,normalised-text) repeat
// filter with a 60s TTL. Below min-length it never dedups (short
// acknowledgements like "ok" repeat constantly and are not noise).
type DedupFilter struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	since   time.Time
	writes  int
}

func NewDedupFilter() *DedupFilter {
	return &DedupFilter{seen: make(map[string]time.Time), since: time.Now()}
}

// Seen reports whether (chatID, userID, text) was already observed within
// the TTL window, recording it either way.
func (f *DedupFilter) Seen(chatID, userID int64, text string) bool {
	normalized := strings.TrimSpace(strings.ToLower(text))
	if utf8.RuneCountInString(normalized) < dedupMinLength {
		return false
	}
	if utf8.RuneCountInString(normalized) > dedupMaxKeyLen {
		runes := []rune(normalized)
		normalized = string(runes[:dedupMaxKeyLen])
	}
	key := keyFor(chatID, userID, normalized)

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if last, ok := f.seen[key]; ok && now.Sub(last) < dedupTTL {
		f.seen[key] = now
		return true
	}
	f.seen[key] = now
	f.writes++
	if f.writes >= 1000 {
		f.prune(now)
		f.writes = 0
	}
	return false
}

func (f *DedupFilter) prune(now time.Time) {
	for k, t := range f.seen {
		if now.Sub(t) >= dedupTTL {
			delete(f.seen, k)
		}
	}
}

func keyFor(chatID, userID int64, normalizedText string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(chatID, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(userID, 10))
	b.WriteByte('|')
	b.WriteString(normalizedText)
	return b.String()
}
