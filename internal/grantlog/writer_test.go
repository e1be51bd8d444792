package grantlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWriter_AppendsWithHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	at := time.Date(2024, 3, 10, 14, 30, 45, 0, time.UTC)
	entries := []Entry{
		{AccountKey: "100", CharacterName: "Aria", OriginKey: "203.0.113.7", GrantedAt: at},
		{AccountKey: "200", CharacterName: "Borin", OriginKey: "198.51.100.9", GrantedAt: at.Add(time.Hour)},
	}
	for _, e := range entries {
		if err := w.Append(e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "reward_log_2024-03-10.csv"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 entries", len(lines))
	}
	if lines[0] != "AccountID,CharacterName,IPAddress,RewardTimestamp" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "100,Aria,203.0.113.7,2024-03-10 14:30:45" {
		t.Errorf("first entry = %q", lines[1])
	}
}

func TestWriter_RollsFilePerDay(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, time.UTC, zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := w.Append(Entry{AccountKey: "100", GrantedAt: time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := w.Append(Entry{AccountKey: "100", GrantedAt: time.Date(2024, 3, 11, 0, 1, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	for _, name := range []string{"reward_log_2024-03-10.csv", "reward_log_2024-03-11.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected daily file %s: %v", name, err)
		}
	}
}
