package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr == "" || cfg.PostgresDSN == "" || cfg.RedisAddr == "" {
		t.Fatalf("defaults must be non-empty: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) == 0 {
		t.Fatal("expected default kafka broker")
	}
	if cfg.SweepInterval <= 0 {
		t.Fatalf("expected positive sweep interval, got %s", cfg.SweepInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("SWEEP_INTERVAL", "10s")

	cfg := Load()
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.KafkaBrokers)
	}
	if cfg.SweepInterval != 10*time.Second {
		t.Fatalf("expected 10s sweep interval, got %s", cfg.SweepInterval)
	}
}

func TestLoadBadSweepIntervalFallsBack(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "banana")
	cfg := Load()
	if cfg.SweepInterval != 30*time.Second {
		t.Fatalf("expected default 30s, got %s", cfg.SweepInterval)
	}
}
