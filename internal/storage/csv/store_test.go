package csv

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seolha/loginrewards/internal/storage"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	at, err := storage.ParseTime(s, time.UTC)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", s, err)
	}
	return at
}

func TestStore_MissingFilesStartEmpty(t *testing.T) {
	store, err := Open(t.TempDir(), time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.Accounts().Len() != 0 || store.Origins().Len() != 0 {
		t.Error("expected empty stores for a fresh directory")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	at := mustTime(t, "2024-03-10 14:30:45")
	store.Accounts().Upsert(storage.Record{Key: "100", CharacterName: "Aria", GrantedAt: at})
	store.Accounts().Upsert(storage.Record{Key: "200", CharacterName: "Borin", GrantedAt: at.Add(time.Minute)})
	store.Origins().Upsert(storage.Record{Key: "203.0.113.7", GrantedAt: at})

	if err := store.Accounts().Save(ctx); err != nil {
		t.Fatalf("account Save failed: %v", err)
	}
	if err := store.Origins().Save(ctx); err != nil {
		t.Fatalf("origin Save failed: %v", err)
	}

	reloaded, err := Open(dir, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}

	rec, ok := reloaded.Accounts().Get("100")
	if !ok {
		t.Fatal("account 100 missing after reload")
	}
	if rec.CharacterName != "Aria" {
		t.Errorf("CharacterName = %q, want %q", rec.CharacterName, "Aria")
	}
	if !rec.GrantedAt.Equal(at) {
		t.Errorf("GrantedAt = %s, want %s (second precision)", rec.GrantedAt, at)
	}

	if reloaded.Accounts().Len() != 2 {
		t.Errorf("account records = %d, want 2", reloaded.Accounts().Len())
	}
	if origin, ok := reloaded.Origins().Get("203.0.113.7"); !ok || !origin.GrantedAt.Equal(at) {
		t.Errorf("origin record = %+v, ok = %v", origin, ok)
	}
}

func TestStore_UpsertOverwrites(t *testing.T) {
	store, err := Open(t.TempDir(), time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	first := mustTime(t, "2024-03-10 14:00:00")
	second := mustTime(t, "2024-03-11 09:00:00")
	store.Accounts().Upsert(storage.Record{Key: "100", CharacterName: "Aria", GrantedAt: first})
	store.Accounts().Upsert(storage.Record{Key: "100", CharacterName: "Ariana", GrantedAt: second})

	rec, _ := store.Accounts().Get("100")
	if !rec.GrantedAt.Equal(second) || rec.CharacterName != "Ariana" {
		t.Errorf("record = %+v, want latest upsert", rec)
	}
	if store.Accounts().Len() != 1 {
		t.Errorf("records = %d, want 1 (no history)", store.Accounts().Len())
	}
}

func TestStore_MalformedRowsSkipped(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		"AccountID,CharacterName,LastRewardTimestamp",
		"100,Aria,2024-03-10 14:30:45",
		"garbage line without commas",
		"200,Borin,not-a-timestamp",
		"300,Cale,2024-03-11 09:00:00",
		"", // trailing blank line
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "account_last_reward.csv"), []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	store, err := Open(dir, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed on malformed file: %v", err)
	}

	if store.Accounts().Len() != 2 {
		t.Fatalf("records = %d, want 2 well-formed rows", store.Accounts().Len())
	}
	if _, ok := store.Accounts().Get("100"); !ok {
		t.Error("well-formed row 100 missing")
	}
	if _, ok := store.Accounts().Get("300"); !ok {
		t.Error("well-formed row 300 missing")
	}
	if _, ok := store.Accounts().Get("200"); ok {
		t.Error("row with bad timestamp loaded")
	}
}

func TestStore_SaveWritesHeader(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.Origins().Upsert(storage.Record{Key: "203.0.113.7", GrantedAt: mustTime(t, "2024-03-10 14:30:45")})
	if err := store.Origins().Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "origin_last_reward.csv"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "IPAddress,LastRewardTimestamp" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 2 || lines[1] != "203.0.113.7,2024-03-10 14:30:45" {
		t.Errorf("rows = %v", lines[1:])
	}
}
