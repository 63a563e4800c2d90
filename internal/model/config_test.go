package model

import (
	"errors"
	"testing"
)

func TestDefaultConfig_Validates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("built-in defaults must validate: %v", err)
	}
}

func TestValidate_UnknownProviderName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = []ProviderConfig{{Name: "mistral", TimeoutSeconds: 30}}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown provider name")
	}
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("expected *ConfigurationError, got %T", err)
	}
}

func TestValidate_DuplicateProviders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = []ProviderConfig{
		{Name: "openai", TimeoutSeconds: 30},
		{Name: "openai", TimeoutSeconds: 30},
	}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for duplicate providers")
	}
}

func TestValidate_ScoreOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ensemble.HighScore = 95
	cfg.Ensemble.AuthoritativeScore = 90

	if err := cfg.Validate(); err == nil {
		t.Error("high_score above authoritative_score must be rejected")
	}
}

func TestValidate_TimeoutOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ensemble.CallTimeout = cfg.Ensemble.OverallTimeout * 2

	if err := cfg.Validate(); err == nil {
		t.Error("call_timeout above overall_timeout must be rejected")
	}
}

func TestValidate_RangeViolations(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero failure threshold", func(c *Config) { c.Breaker.FailureThreshold = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.BurstSize = 0 }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTLSeconds = 0 }},
		{"similarity above 1", func(c *Config) { c.Citation.SimilarityThreshold = 1.5 }},
		{"quality above 100", func(c *Config) { c.Policy.MinQualityScore = 120 }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"empty prompt version", func(c *Config) { c.Ensemble.PromptVersion = "" }},
	}

	for _, m := range mutations {
		cfg := DefaultConfig()
		m.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", m.name)
		}
	}
}

func TestConfigurationError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &ConfigurationError{Err: inner}
	if !errors.Is(err, inner) {
		t.Error("ConfigurationError should unwrap to its cause")
	}
}
