package model

import "time"

// CitationValidationResult is the output of the citation validator.
// Warnings never block; Passes is true iff Issues is empty.
type CitationValidationResult struct {
	Passes   bool                   `json:"passes"`
	Issues   []string               `json:"issues,omitempty"`
	Warnings []string               `json:"warnings,omitempty"`
	Metrics  map[string]interface{} `json:"metrics,omitempty"`
}

// Decision is the publish gate outcome.
type Decision string

const (
	DecisionPublish Decision = "publish"
	DecisionHold    Decision = "hold"   // default safe fallback for any blocking condition
	DecisionReject  Decision = "reject" // reserved for confirmed factual errors
)

// PublishDecision is the final, auditable gate result. Reasons are ordered
// by rule precedence and every triggering reason is preserved.
type PublishDecision struct {
	Decision Decision `json:"decision"`
	Reasons  []string `json:"reasons"`
}

// CorrectionKind classifies a correction log entry.
type CorrectionKind string

const (
	CorrectionHold          CorrectionKind = "hold_reason"
	CorrectionContradiction CorrectionKind = "contradiction"
	CorrectionRetraction    CorrectionKind = "retraction_flag"
)

// CorrectionEntry is the narrow append-only contract with the downstream
// correction/retraction log. The log's schema and retention are owned
// downstream; this core only appends.
type CorrectionEntry struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Kind      CorrectionKind `json:"kind"`
	Reasons   []string       `json:"reasons"`
	CreatedAt time.Time      `json:"created_at"`
}

// ReviewReport is the complete output of one review run.
type ReviewReport struct {
	RunID           string                   `json:"run_id"`
	Title           string                   `json:"title"`
	Slug            string                   `json:"slug"`
	ReviewedAt      time.Time                `json:"reviewed_at"`
	Ledger          ClaimLedgerResult        `json:"ledger"`
	Citations       CitationValidationResult `json:"citations"`
	Consensus       ConsensusResult          `json:"consensus"`
	CitationDensity float64                  `json:"citation_density"`
	Decision        PublishDecision          `json:"decision"`
}
