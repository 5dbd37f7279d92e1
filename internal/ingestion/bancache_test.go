package ingestion

import (
	"errors"
	"testing"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/pkg/dbctx"
)

// fakeSettings implements repos.SettingsRepo for the ban-cache tests; only
// IsBanned is exercised.
type fakeSettings struct {
	banned bool
	err    error
	calls  int
}

func (f *fakeSettings) IsBanned(dc dbctx.Context, chatID, userID int64) (bool, error) {
	f.calls++
	return f.banned, f.err
}

func (f *fakeSettings) Ban(dc dbctx.Context, chatID, userID int64, reason string) error { return nil }
func (f *fakeSettings) Unban(dc dbctx.Context, chatID, userID int64) error              { return nil }
func (f *fakeSettings) GetChatSettings(dc dbctx.Context, chatID int64) (*model.ChatSettings, error) {
	return nil, nil
}
func (f *fakeSettings) SetChatSettings(dc dbctx.Context, settings *model.ChatSettings) error {
	return nil
}
func (f *fakeSettings) GetAdminSetting(dc dbctx.Context, key string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeSettings) SetAdminSetting(dc dbctx.Context, key, value string) error { return nil }
func (f *fakeSettings) GetPrompt(dc dbctx.Context, key string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeSettings) SetPrompt(dc dbctx.Context, key, value string) error { return nil }

func TestBanCacheFailsOpenOnStoreError(t *testing.T) {
	store := &fakeSettings{banned: true, err: errors.New("store down")}
	c := NewBanCache(store)

	if c.IsBanned(dbctx.Context{}, 1, 100) {
		t.Fatalf("a store error must fail open (allow the message through)")
	}
}

func TestBanCacheCachesWithinTTL(t *testing.T) {
	store := &fakeSettings{banned: true}
	c := NewBanCache(store)

	if !c.IsBanned(dbctx.Context{}, 1, 100) {
		t.Fatalf("first lookup should reflect the store's banned=true")
	}
	if !c.IsBanned(dbctx.Context{}, 1, 100) {
		t.Fatalf("second lookup should still report banned")
	}
	if store.calls != 1 {
		t.Fatalf("second lookup within TTL must be served from cache, store was hit %d times", store.calls)
	}
}

func TestBanCacheDistinguishesUsers(t *testing.T) {
	store := &fakeSettings{banned: false}
	c := NewBanCache(store)

	c.IsBanned(dbctx.Context{}, 1, 100)
	c.IsBanned(dbctx.Context{}, 1, 200)
	if store.calls != 2 {
		t.Fatalf("distinct users must each hit the store once, got %d calls", store.calls)
	}
}
