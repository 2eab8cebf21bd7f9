package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
storage:
  driver: file
  dir: /var/lib/training
session:
  idle_ttl: 45m
scoring:
  policy: mean-evaluation
  evaluator: textmatch
  max_edit_distance: 3
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.StorageDriver() != StorageFile || cfg.StorageDir() != "/var/lib/training" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Scoring.Policy != "mean-evaluation" || cfg.Scoring.MaxEditDistance != 3 {
		t.Fatalf("unexpected scoring config: %+v", cfg.Scoring)
	}
	if got := TTLDuration(cfg.Session.IdleTTL, time.Minute); got != 45*time.Minute {
		t.Fatalf("expected 45m, got %v", got)
	}
}

func TestStorageDriverDefaults(t *testing.T) {
	var cfg Config
	if cfg.StorageDriver() != StorageMemory {
		t.Fatalf("expected memory default, got %s", cfg.StorageDriver())
	}
	cfg.Postgres.URL = "postgres://localhost/training"
	if cfg.StorageDriver() != StoragePostgres {
		t.Fatalf("expected postgres when url set, got %s", cfg.StorageDriver())
	}
	if TTLDuration("bogus", time.Second) != time.Second {
		t.Fatalf("expected fallback for invalid duration")
	}
}

func TestPositiveDurationRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"0s", "-5m", "", "bogus"} {
		if got := PositiveDuration(raw, time.Minute); got != time.Minute {
			t.Fatalf("%q: expected fallback, got %v", raw, got)
		}
	}
	if got := PositiveDuration("30s", time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}
