package bolt

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/storage"
)

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	at := time.Date(2024, 3, 10, 14, 30, 45, 0, time.UTC)
	store.Accounts().Upsert(storage.Record{Key: "100", CharacterName: "Aria", GrantedAt: at})
	store.Origins().Upsert(storage.Record{Key: "203.0.113.7", GrantedAt: at})

	if err := store.Accounts().Save(ctx); err != nil {
		t.Fatalf("account Save failed: %v", err)
	}
	if err := store.Origins().Save(ctx); err != nil {
		t.Fatalf("origin Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reloaded, err := Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reloaded.Close()

	rec, ok := reloaded.Accounts().Get("100")
	if !ok {
		t.Fatal("account record missing after reload")
	}
	if rec.CharacterName != "Aria" || !rec.GrantedAt.Equal(at) {
		t.Errorf("record = %+v", rec)
	}
	if _, ok := reloaded.Origins().Get("203.0.113.7"); !ok {
		t.Fatal("origin record missing after reload")
	}
}

func TestStore_UnsavedUpsertsAreNotDurable(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.Accounts().Upsert(storage.Record{
		Key:       "100",
		GrantedAt: time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC),
	})
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reloaded, err := Open(dir, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reloaded.Close()

	if reloaded.Accounts().Len() != 0 {
		t.Error("upsert without Save survived a restart")
	}
}
