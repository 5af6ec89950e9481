package config

import "testing"

func TestProfileValues(t *testing.T) {
	cases := []struct {
		mode TokenMode
		want BudgetProfile
	}{
		{TokenModeLow, BudgetProfile{14000, 4, 9000, 90000}},
		{TokenModeNormal, BudgetProfile{24000, 8, 16000, 180000}},
		{TokenModeDebug, BudgetProfile{42000, 12, 24000, 300000}},
	}
	for _, c := range cases {
		got := Profile(c.mode)
		if got != c.want {
			t.Fatalf("profile(%s) = %+v, want %+v", c.mode, got, c.want)
		}
	}
}

func TestProfileUnknownDefaultsToNormal(t *testing.T) {
	got := Profile(TokenMode("bogus"))
	if got != budgetProfiles[TokenModeNormal] {
		t.Fatalf("expected normal profile fallback, got %+v", got)
	}
}

func TestDefaultSettings(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if cfg.ContinuityMode != ModeOff {
		t.Fatalf("expected default mode off, got %s", cfg.ContinuityMode)
	}
	if cfg.TokenMode != TokenModeNormal {
		t.Fatalf("expected default token mode normal, got %s", cfg.TokenMode)
	}
	if cfg.MemoryBranch != "memory/continuity" {
		t.Fatalf("expected default memory branch, got %s", cfg.MemoryBranch)
	}
	if cfg.RehydrateEnabled {
		t.Fatalf("expected rehydrate disabled by default")
	}
	if !cfg.SnapshotEnabled {
		t.Fatalf("expected snapshot enabled by default")
	}
}

func TestLoadRespectsDataDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetDataDirOverride(dir)
	defer SetDataDirOverride("")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != dir {
		t.Fatalf("expected data dir %s, got %s", dir, cfg.DataDir)
	}
}
