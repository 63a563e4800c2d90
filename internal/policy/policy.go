package policy

import (
	"fmt"

	"github.com/ppiankov/factgate/internal/model"
)

// Policy is the publish gate: a pure, deterministic function of the
// component results. The decision starts at publish and is only ever
// downgraded by rule application; rules never upgrade.
type Policy struct {
	cfg model.PolicyConfig
}

// NewPolicy creates a publish policy from configuration.
func NewPolicy(cfg model.PolicyConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Evaluate combines the consensus, ledger, and citation results with the
// draft's quality metrics into a publish/hold/reject decision. Reject is
// reserved for confirmed factual errors and is terminal; every other
// blocking condition accumulates a hold reason.
func (p *Policy) Evaluate(
	draft model.ArticleDraft,
	evidence []model.EvidenceItem,
	consensus model.ConsensusResult,
	citations model.CitationValidationResult,
	ledger model.ClaimLedgerResult,
	citationDensity float64,
) model.PublishDecision {
	if len(consensus.Synthesized.FactualErrors) > 0 {
		reasons := make([]string, 0, len(consensus.Synthesized.FactualErrors))
		for _, e := range consensus.Synthesized.FactualErrors {
			reasons = append(reasons, "confirmed factual error: "+e)
		}
		return model.PublishDecision{Decision: model.DecisionReject, Reasons: reasons}
	}

	var reasons []string

	if len(evidence) < p.cfg.MinEvidence {
		reasons = append(reasons, fmt.Sprintf(
			"insufficient evidence: %d item(s), need %d", len(evidence), p.cfg.MinEvidence))
	}

	if draft.QualityScore < p.cfg.MinQualityScore {
		reasons = append(reasons, fmt.Sprintf(
			"quality score %.0f below minimum %.0f", draft.QualityScore, p.cfg.MinQualityScore))
	}

	if citationDensity < p.cfg.MinCitationDensity {
		reasons = append(reasons, fmt.Sprintf(
			"citation density %.2f below minimum %.2f", citationDensity, p.cfg.MinCitationDensity))
	}

	if !citations.Passes {
		reasons = append(reasons, fmt.Sprintf(
			"citation validation failed with %d issue(s): %s", len(citations.Issues), firstOf(citations.Issues)))
	}

	if ledger.IssueCount > 0 {
		reasons = append(reasons, fmt.Sprintf(
			"claim ledger found %d citation issue(s) across %d claim(s)", ledger.IssueCount, ledger.ClaimCount()))
	}
	if len(ledger.Contradictions) > 0 {
		reasons = append(reasons, fmt.Sprintf(
			"contradictory numeric claims: %s", describeContradiction(ledger.Contradictions[0])))
	}

	if consensus.Level == model.LevelSkipped {
		reasons = append(reasons, "fact-check consensus unavailable: no providers responded")
	} else if consensus.Score < p.cfg.MinConsensusScore {
		reasons = append(reasons, fmt.Sprintf(
			"consensus score %.0f below minimum %.0f (level %s)", consensus.Score, p.cfg.MinConsensusScore, consensus.Level))
	}

	if len(reasons) > 0 {
		return model.PublishDecision{Decision: model.DecisionHold, Reasons: reasons}
	}

	return model.PublishDecision{
		Decision: model.DecisionPublish,
		Reasons:  []string{"all publish thresholds met"},
	}
}

// FastTracked reports whether a content type is on the expedited publish
// path and therefore subject to the correction window.
func (p *Policy) FastTracked(contentType string) bool {
	for _, t := range p.cfg.FastTrackTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func firstOf(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

func describeContradiction(c model.Contradiction) string {
	return fmt.Sprintf("%q has conflicting values %v", c.SubjectKey, c.Values)
}
