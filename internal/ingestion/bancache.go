package ingestion

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/chatcortex/internal/data/repos"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
)

const banCacheTTL = 60 * time.Second

// BanCache caches ban-status lookups per (chat, user) with a TTL so the
// hot ingestion path does not hit the store once per message. On a store
// error it fails open: the message is allowed through rather than turning
// a settings-store outage into a global ingestion outage.
type BanCache struct {
	settings repos.SettingsRepo

	mu     sync.Mutex
	cached map[string]banEntry
	writes int
}

type banEntry struct {
	banned bool
	at     time.Time
}

func NewBanCache(settings repos.SettingsRepo) *BanCache {
	return &BanCache{settings: settings, cached: make(map[string]banEntry)}
}

// IsBanned returns the cached ban status, refreshing from the store when
// the entry is missing or stale.
func (c *BanCache) IsBanned(dc dbctx.Context, chatID, userID int64) bool {
	key := banKey(chatID, userID)

	c.mu.Lock()
	entry, ok := c.cached[key]
	c.mu.Unlock()
	if ok && time.Since(entry.at) < banCacheTTL {
		return entry.banned
	}

	banned, err := c.settings.IsBanned(dc, chatID, userID)
	if err != nil {
		return false
	}

	c.mu.Lock()
	c.cached[key] = banEntry{banned: banned, at: time.Now()}
	c.writes++
	if c.writes >= 1000 {
		c.prune()
		c.writes = 0
	}
	c.mu.Unlock()
	return banned
}

func (c *BanCache) prune() {
	now := time.Now()
	for k, e := range c.cached {
		if now.Sub(e.at) >= banCacheTTL {
			delete(c.cached, k)
		}
	}
}

func banKey(chatID, userID int64) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(chatID, 10))
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(userID, 10))
	return b.String()
}
