package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func writeConfig(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "login-rewards.conf")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

func TestLoad_MissingFileDisablesModule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.conf")
	cfg, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if !cfg.Missing {
		t.Error("Missing = false for absent file")
	}
	if cfg.Enable {
		t.Error("module enabled without a config file")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "# empty module section")
	cfg, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Enable {
		t.Error("Enable default = false, want true")
	}
	if cfg.DailyGoldAmount != 100000 {
		t.Errorf("DailyGoldAmount = %d, want 100000", cfg.DailyGoldAmount)
	}
	if cfg.DailyResetHour != 0 {
		t.Errorf("DailyResetHour = %d, want 0", cfg.DailyResetHour)
	}
	if cfg.ResetTimeZone != "Asia/Seoul" {
		t.Errorf("ResetTimeZone = %q, want Asia/Seoul", cfg.ResetTimeZone)
	}
	if cfg.Storage.Type != "csv" {
		t.Errorf("Storage.Type = %q, want csv", cfg.Storage.Type)
	}
	if !strings.Contains(cfg.AnnounceMessage, "%gold%") {
		t.Errorf("default announce lacks the gold token: %q", cfg.AnnounceMessage)
	}
	if cfg.Location().String() != "Asia/Seoul" {
		t.Errorf("Location = %s, want Asia/Seoul", cfg.Location())
	}
}

func TestLoad_ParsesValues(t *testing.T) {
	path := writeConfig(t,
		"# Daily login rewards",
		"LoginRewards.Enable=1",
		"LoginRewards.DailyGoldAmount=250000",
		"LoginRewards.DailyResetHour=6",
		"LoginRewards.RewardDelaySeconds=120",
		`LoginRewards.AnnounceMessage="You got %gold% gold!"`,
		"LoginRewards.ShowAnnounceMessage=0",
		"LoginRewards.ResetTimeZone=UTC",
		"LoginRewards.Storage.Type=bolt",
		"LoginRewards.Metrics.Port=9105",
		"",
		"SomeOtherModule.Setting=5",
	)

	cfg, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.Enable {
		t.Error("Enable = false")
	}
	if cfg.DailyGoldAmount != 250000 {
		t.Errorf("DailyGoldAmount = %d", cfg.DailyGoldAmount)
	}
	if cfg.DailyResetHour != 6 {
		t.Errorf("DailyResetHour = %d", cfg.DailyResetHour)
	}
	if cfg.RewardDelaySeconds != 120 {
		t.Errorf("RewardDelaySeconds = %d", cfg.RewardDelaySeconds)
	}
	if want := "You got %gold% gold!"; cfg.AnnounceMessage != want {
		t.Errorf("AnnounceMessage = %q, want unquoted %q", cfg.AnnounceMessage, want)
	}
	if cfg.ShowAnnounceMessage {
		t.Error("ShowAnnounceMessage = true, want false for 0")
	}
	if cfg.Storage.Type != "bolt" {
		t.Errorf("Storage.Type = %q", cfg.Storage.Type)
	}
	if cfg.Metrics.Port != 9105 {
		t.Errorf("Metrics.Port = %d", cfg.Metrics.Port)
	}
}

// Booleans follow the original convention: "1" is true, anything else
// is false, even truthy-looking strings.
func TestLoad_BooleanConvention(t *testing.T) {
	path := writeConfig(t, "LoginRewards.Enable=yes")
	cfg, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Enable {
		t.Error(`Enable = true for "yes", want false`)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	path := writeConfig(t,
		"LoginRewards.DailyGoldAmount=lots",
		"LoginRewards.DailyResetHour=99",
	)
	cfg, err := Load(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DailyGoldAmount != 100000 {
		t.Errorf("DailyGoldAmount = %d, want default after bad value", cfg.DailyGoldAmount)
	}
	if cfg.DailyResetHour != 0 {
		t.Errorf("DailyResetHour = %d, want clamped default", cfg.DailyResetHour)
	}
}

func TestLoad_InvalidStorageType(t *testing.T) {
	path := writeConfig(t, "LoginRewards.Storage.Type=mainframe")
	if _, err := Load(path, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
}

func TestLoad_InvalidTimeZone(t *testing.T) {
	path := writeConfig(t, "LoginRewards.ResetTimeZone=Mars/Olympus_Mons")
	if _, err := Load(path, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}
