package model

import "time"

// Verdict is one provider's structured review of an article.
// Created once per ensemble call; retained only inside the audit trail.
type Verdict struct {
	ProviderID          string        `json:"provider_id"`
	RegulationsApproved []string      `json:"regulations_approved"`
	RegulationsDisputed []string      `json:"regulations_disputed"`
	RegulationsMissing  []string      `json:"regulations_missing"`
	FactualErrors       []string      `json:"factual_errors"`
	FactualWarnings     []string      `json:"factual_warnings"`
	CostEstimate        float64       `json:"cost_estimate,omitempty"`
	CostFeedback        string        `json:"cost_feedback,omitempty"`
	Confidence          int           `json:"confidence"` // 0-100
	Latency             time.Duration `json:"latency_ns,omitempty"`
}

// ConsensusLevel summarizes how much independent verification agrees.
type ConsensusLevel string

const (
	LevelAuthoritative ConsensusLevel = "authoritative"
	LevelHigh          ConsensusLevel = "high"
	LevelDisputed      ConsensusLevel = "disputed"
	LevelUntrusted     ConsensusLevel = "untrusted" // confidence dispersion too wide to trust
	LevelSkipped       ConsensusLevel = "skipped"   // zero providers responded
	LevelSingle        ConsensusLevel = "single"    // exactly one provider responded
)

// Dissent records one field where a provider's verdict diverges from the
// synthesized consensus.
type Dissent struct {
	Provider string `json:"provider"`
	Field    string `json:"field"`
	Detail   string `json:"detail"`
}

// ConsensusResult is the merged outcome of an ensemble validation call.
type ConsensusResult struct {
	Level          ConsensusLevel `json:"level"`
	Score          float64        `json:"score"`
	ConfidenceMean float64        `json:"confidence_mean"`
	ConfidenceStd  float64        `json:"confidence_std"`
	Models         []string       `json:"models"`                // responders, sorted
	Unavailable    []string       `json:"unavailable,omitempty"` // skipped: breaker open or rate limited
	TotalCost      float64        `json:"total_cost"`
	Synthesized    Verdict        `json:"synthesized"`
	Dissents       []Dissent      `json:"dissents,omitempty"`
	FromCache      bool           `json:"from_cache,omitempty"`
}
