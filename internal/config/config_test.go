package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN", "secret")
	t.Setenv("GUILD_ID", "1234")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LedgerFile != "donations.json" {
		t.Fatalf("LedgerFile mismatch: got %q want %q", cfg.LedgerFile, "donations.json")
	}
	if cfg.ExpirationsFile != "expirations.json" {
		t.Fatalf("ExpirationsFile mismatch: got %q want %q", cfg.ExpirationsFile, "expirations.json")
	}
	if cfg.SweepInterval != 6*time.Hour {
		t.Fatalf("SweepInterval mismatch: got %v want %v", cfg.SweepInterval, 6*time.Hour)
	}
	if cfg.LeaderboardSize != 10 || cfg.HistorySize != 25 {
		t.Fatalf("sizes mismatch: got %d/%d want 10/25", cfg.LeaderboardSize, cfg.HistorySize)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN", "secret")
	t.Setenv("GUILD_ID", "1234")
	t.Setenv("SWEEP_INTERVAL", "30m")
	t.Setenv("LEDGER_FILE", "/data/ledger.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SweepInterval != 30*time.Minute {
		t.Fatalf("SweepInterval mismatch: got %v want %v", cfg.SweepInterval, 30*time.Minute)
	}
	if cfg.LedgerFile != "/data/ledger.json" {
		t.Fatalf("LedgerFile mismatch: got %q", cfg.LedgerFile)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TOKEN", "")
	t.Setenv("GUILD_ID", "1234")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without TOKEN")
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("TOKEN", "secret")
	t.Setenv("GUILD_ID", "1234")
	t.Setenv("SWEEP_INTERVAL", "0s")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a zero sweep interval")
	}
}
