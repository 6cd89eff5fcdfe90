package config

import (
	"errors"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.ModelFast != DefaultModelFast {
		t.Errorf("ModelFast = %s", cfg.ModelFast)
	}
	if cfg.ModelFallback != DefaultModelFallback {
		t.Errorf("ModelFallback = %s", cfg.ModelFallback)
	}
	if !cfg.EnableAuth || !cfg.EnableDataMasking || !cfg.EnablePIIDetection {
		t.Error("security toggles should default on")
	}
	if cfg.GenerationRetries != DefaultGenerationRetries {
		t.Errorf("GenerationRetries = %d", cfg.GenerationRetries)
	}
}

func TestLoadRequiresProviderKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingProviderKey) {
		t.Fatalf("expected ErrMissingProviderKey, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "k")
	t.Setenv("INSIGHT_PORT", "9100")
	t.Setenv("INSIGHT_MODEL_FAST", "anthropic/claude-haiku-4")
	t.Setenv("CLICKHOUSE_ADDR", "ch1:9000,ch2:9000")
	t.Setenv("INSIGHT_API_KEYS", "a,b")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.ModelFast != "anthropic/claude-haiku-4" {
		t.Errorf("ModelFast = %s", cfg.ModelFast)
	}
	if len(cfg.ClickHouseAddr) != 2 || cfg.ClickHouseAddr[1] != "ch2:9000" {
		t.Errorf("ClickHouseAddr = %v", cfg.ClickHouseAddr)
	}
	if len(cfg.APIKeys) != 2 {
		t.Errorf("APIKeys = %v", cfg.APIKeys)
	}
}
