package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/friendsincode/skald/internal/db"
	"github.com/friendsincode/skald/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(database, zerolog.Nop())
}

func TestMessagesOrderedByPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, text := range []string{"third", "first", "second"} {
		pos := []int{3, 1, 2}[i]
		msg := models.NewMessage("north", text)
		msg.Position = pos
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message: %v", err)
		}
	}

	messages, err := s.StationMessages(ctx, "north")
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Text != want {
			t.Fatalf("message %d = %q, want %q", i, messages[i].Text, want)
		}
	}

	if other, _ := s.StationMessages(ctx, "south"); len(other) != 0 {
		t.Fatalf("station scoping leaked: %v", other)
	}
}

func TestDeleteMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := models.NewMessage("north", "gone soon")
	if err := s.SaveMessage(ctx, msg); err != nil {
		t.Fatalf("save message: %v", err)
	}
	if err := s.DeleteMessage(ctx, msg.ID); err != nil {
		t.Fatalf("delete message: %v", err)
	}

	messages, err := s.StationMessages(ctx, "north")
	if err != nil {
		t.Fatalf("load messages: %v", err)
	}
	if len(messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(messages))
	}
}

func TestAdsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ad := models.NewAd("north", "Sponsor A", "/audio/a.mp3")
	if err := s.SaveAd(ctx, ad); err != nil {
		t.Fatalf("save ad: %v", err)
	}

	ads, err := s.StationAds(ctx, "north")
	if err != nil {
		t.Fatalf("load ads: %v", err)
	}
	if len(ads) != 1 || ads[0].Name != "Sponsor A" || ads[0].AudioPath != "/audio/a.mp3" {
		t.Fatalf("unexpected ads: %+v", ads)
	}

	if err := s.DeleteAd(ctx, ad.ID); err != nil {
		t.Fatalf("delete ad: %v", err)
	}
	if ads, _ := s.StationAds(ctx, "north"); len(ads) != 0 {
		t.Fatalf("expected no ads, got %d", len(ads))
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if got := s.Setting(ctx, "north", "rds.default_text", "fallback"); got != "fallback" {
		t.Fatalf("unset setting = %q, want default", got)
	}

	if err := s.PutSetting(ctx, "north", "rds.default_text", "Hello"); err != nil {
		t.Fatalf("put setting: %v", err)
	}
	if got := s.Setting(ctx, "north", "rds.default_text", "fallback"); got != "Hello" {
		t.Fatalf("setting = %q, want Hello", got)
	}

	// Upsert replaces the value for the same station and key.
	if err := s.PutSetting(ctx, "north", "rds.default_text", "Updated"); err != nil {
		t.Fatalf("update setting: %v", err)
	}
	if got := s.Setting(ctx, "north", "rds.default_text", "fallback"); got != "Updated" {
		t.Fatalf("setting after upsert = %q, want Updated", got)
	}

	// Other stations keep their own namespace.
	if got := s.Setting(ctx, "south", "rds.default_text", "fallback"); got != "fallback" {
		t.Fatalf("cross-station setting = %q", got)
	}

	if err := s.PutSetting(ctx, "north", "ads.poll_seconds", "15"); err != nil {
		t.Fatalf("put int setting: %v", err)
	}
	if got := s.SettingInt(ctx, "north", "ads.poll_seconds", 5); got != 15 {
		t.Fatalf("SettingInt = %d, want 15", got)
	}
	if got := s.SettingInt(ctx, "north", "ads.missing", 5); got != 5 {
		t.Fatalf("SettingInt default = %d, want 5", got)
	}
}

func TestArtistListsLowercaseAndDedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddListEntry(ctx, models.ListBlacklist, "  Radio Drama Ensemble "); err != nil {
		t.Fatalf("add entry: %v", err)
	}
	// Duplicate in a different case is ignored.
	if err := s.AddListEntry(ctx, models.ListBlacklist, "RADIO DRAMA ENSEMBLE"); err != nil {
		t.Fatalf("add duplicate: %v", err)
	}
	if err := s.AddListEntry(ctx, models.ListWhitelist, "John Smith"); err != nil {
		t.Fatalf("add whitelist entry: %v", err)
	}

	blacklist, err := s.Blacklist(ctx)
	if err != nil {
		t.Fatalf("load blacklist: %v", err)
	}
	if len(blacklist) != 1 || !blacklist["radio drama ensemble"] {
		t.Fatalf("unexpected blacklist: %v", blacklist)
	}

	whitelist, err := s.Whitelist(ctx)
	if err != nil {
		t.Fatalf("load whitelist: %v", err)
	}
	if !whitelist["john smith"] || whitelist["radio drama ensemble"] {
		t.Fatalf("unexpected whitelist: %v", whitelist)
	}

	if err := s.RemoveListEntry(ctx, models.ListBlacklist, "Radio Drama Ensemble"); err != nil {
		t.Fatalf("remove entry: %v", err)
	}
	if blacklist, _ := s.Blacklist(ctx); len(blacklist) != 0 {
		t.Fatalf("expected empty blacklist, got %v", blacklist)
	}

	if err := s.AddListEntry(ctx, models.ListBlacklist, "   "); err == nil {
		t.Fatal("expected error for blank artist")
	}
}

func TestObserversNotifiedInOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var order []string
	s.RegisterObserver(func() { order = append(order, "a") })
	s.RegisterObserver(func() { order = append(order, "b") })

	if err := s.PutSetting(ctx, "north", "k", "v"); err != nil {
		t.Fatalf("put setting: %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("observer order = %v", order)
	}

	// An observer reading the store must not deadlock against the mutation
	// that triggered it.
	s.RegisterObserver(func() {
		_ = s.Setting(ctx, "north", "k", "")
	})
	if err := s.SaveMessage(ctx, models.NewMessage("north", "hello")); err != nil {
		t.Fatalf("save message: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("expected observers re-invoked, got %d calls", len(order))
	}
}
