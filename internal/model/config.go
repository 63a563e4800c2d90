package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete typed configuration, populated once at startup
// and validated eagerly. No component reads configuration dynamically.
type Config struct {
	Providers []ProviderConfig `yaml:"providers" validate:"dive"`
	Breaker   BreakerConfig    `yaml:"breaker"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
	Cache     CacheConfig      `yaml:"cache"`
	Ensemble  EnsembleConfig   `yaml:"ensemble"`
	Ledger    LedgerConfig     `yaml:"ledger"`
	Citation  CitationConfig   `yaml:"citation"`
	Policy    PolicyConfig     `yaml:"policy"`
	Log       LogConfig        `yaml:"log"`
}

// ProviderConfig configures one external judgment provider.
type ProviderConfig struct {
	Name           string `yaml:"name" validate:"required,oneof=openai anthropic google"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"` // usually injected from env, not the config file
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1"`
}

// BreakerConfig configures the per-provider circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" validate:"gte=1"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout" validate:"gt=0"`
	SuccessThreshold int           `yaml:"success_threshold" validate:"gte=1"`
}

// RateLimitConfig configures the per-provider token bucket.
type RateLimitConfig struct {
	MaxRequestsPerMinute float64 `yaml:"max_requests_per_minute" validate:"gte=1"`
	BurstSize            int     `yaml:"burst_size" validate:"gte=1"`
	// WaitForToken blocks until a token refills instead of rejecting.
	// Only suitable for non-latency-critical batch paths.
	WaitForToken bool `yaml:"wait_for_token"`
}

// CacheConfig configures the verdict memoization cache.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttl_seconds" validate:"gte=1"`
	MaxSize    int  `yaml:"max_size" validate:"gte=1"`
}

// EnsembleConfig configures consensus orchestration and scoring.
type EnsembleConfig struct {
	OverallTimeout     time.Duration `yaml:"overall_timeout" validate:"gt=0"`
	CallTimeout        time.Duration `yaml:"call_timeout" validate:"gt=0"`
	PromptVersion      string        `yaml:"prompt_version" validate:"required"`
	AuthoritativeScore float64       `yaml:"authoritative_score" validate:"gt=0,lte=100"`
	HighScore          float64       `yaml:"high_score" validate:"gt=0,lte=100"`
	// DispersionLimit is the max confidence stddev before the consensus
	// is downgraded to untrusted.
	DispersionLimit float64 `yaml:"dispersion_limit" validate:"gt=0"`
	MaxRetries      int     `yaml:"max_retries" validate:"gte=0"`
}

// LedgerConfig configures claim extraction and cross-checking.
type LedgerConfig struct {
	RequireCitations     bool     `yaml:"require_citations"`
	MinSourcesNumeric    int      `yaml:"min_sources_numeric" validate:"gte=1"`
	MinDomainsNumeric    int      `yaml:"min_domains_numeric" validate:"gte=1"`
	MinSourcesRegulation int      `yaml:"min_sources_regulation" validate:"gte=1"`
	MaxClaims            int      `yaml:"max_claims" validate:"gte=1"`
	SubjectKeyWords      int      `yaml:"subject_key_words" validate:"gte=1"`
	PolicyTriggers       []string `yaml:"policy_triggers"`
}

// LinkCheckConfig configures the optional live evidence link check.
type LinkCheckConfig struct {
	Enabled        bool   `yaml:"enabled"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1"`
	MaxWorkers     int    `yaml:"max_workers" validate:"gte=1"`
	UserAgent      string `yaml:"user_agent"`
}

// CitationConfig configures the citation validator.
type CitationConfig struct {
	RequireSourcesSection bool            `yaml:"require_sources_section"`
	MinWordsPerParagraph  int             `yaml:"min_words_per_paragraph" validate:"gte=1"`
	RecencyDays           int             `yaml:"recency_days" validate:"gte=1"`
	RecencyOverrides      map[string]int  `yaml:"recency_overrides"` // content type -> days
	MaxNgramWords         int             `yaml:"max_ngram_words" validate:"gte=2"`
	SimilarityThreshold   float64         `yaml:"similarity_threshold" validate:"gt=0,lte=1"`
	PrimaryDomains        []string        `yaml:"primary_domains"`
	PrimaryStrict         bool            `yaml:"primary_strict"` // escalate missing primary source to an issue
	LinkCheck             LinkCheckConfig `yaml:"link_check"`
}

// PolicyConfig configures the publish gate minimums.
type PolicyConfig struct {
	MinQualityScore    float64  `yaml:"min_quality_score" validate:"gte=0,lte=100"`
	MinEvidence        int      `yaml:"min_evidence" validate:"gte=0"`
	MinCitationDensity float64  `yaml:"min_citation_density" validate:"gte=0,lte=1"`
	MinConsensusScore  float64  `yaml:"min_consensus_score" validate:"gte=0,lte=100"`
	FastTrackTypes     []string `yaml:"fast_track_types"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// ConfigurationError reports invalid configuration. It is fatal at
// startup; no call path runs with an invalid config.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Providers: []ProviderConfig{},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  60 * time.Second,
			SuccessThreshold: 2,
		},
		RateLimit: RateLimitConfig{
			MaxRequestsPerMinute: 50,
			BurstSize:            10,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
			MaxSize:    256,
		},
		Ensemble: EnsembleConfig{
			OverallTimeout:     90 * time.Second,
			CallTimeout:        45 * time.Second,
			PromptVersion:      "v1",
			AuthoritativeScore: 90,
			HighScore:          75,
			DispersionLimit:    15,
			MaxRetries:         2,
		},
		Ledger: LedgerConfig{
			RequireCitations:     true,
			MinSourcesNumeric:    2,
			MinDomainsNumeric:    2,
			MinSourcesRegulation: 1,
			MaxClaims:            200,
			SubjectKeyWords:      4,
			PolicyTriggers: []string{
				"must", "shall", "mandatory", "prohibit", "prohibited",
				"required", "banned", "forbidden", "comply", "compliance",
				"enforce", "penalty",
			},
		},
		Citation: CitationConfig{
			RequireSourcesSection: true,
			MinWordsPerParagraph:  25,
			RecencyDays:           365,
			RecencyOverrides: map[string]int{
				"news":     14,
				"analysis": 90,
			},
			MaxNgramWords:       8,
			SimilarityThreshold: 0.82,
			PrimaryDomains: []string{
				"europa.eu", "eur-lex.europa.eu", "sec.gov", "congress.gov",
				"federalregister.gov", "legislation.gov.uk", "gov.uk",
			},
			LinkCheck: LinkCheckConfig{
				Enabled:        false,
				TimeoutSeconds: 10,
				MaxWorkers:     8,
				UserAgent:      "factgate/0.1 (+https://github.com/ppiankov/factgate)",
			},
		},
		Policy: PolicyConfig{
			MinQualityScore:    75,
			MinEvidence:        3,
			MinCitationDensity: 0.5,
			MinConsensusScore:  70,
			FastTrackTypes:     []string{"news"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks the configuration eagerly. Any violation is a
// ConfigurationError and must abort startup.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return &ConfigurationError{Err: err}
	}
	if c.Ensemble.HighScore >= c.Ensemble.AuthoritativeScore {
		return &ConfigurationError{Err: fmt.Errorf(
			"ensemble.high_score (%v) must be below ensemble.authoritative_score (%v)",
			c.Ensemble.HighScore, c.Ensemble.AuthoritativeScore)}
	}
	if c.Ensemble.CallTimeout > c.Ensemble.OverallTimeout {
		return &ConfigurationError{Err: fmt.Errorf(
			"ensemble.call_timeout (%v) must not exceed ensemble.overall_timeout (%v)",
			c.Ensemble.CallTimeout, c.Ensemble.OverallTimeout)}
	}
	seen := make(map[string]bool)
	for _, p := range c.Providers {
		if seen[p.Name] {
			return &ConfigurationError{Err: fmt.Errorf("duplicate provider: %s", p.Name)}
		}
		seen[p.Name] = true
	}
	return nil
}
