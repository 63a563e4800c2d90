package ensemble

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/factgate/internal/model"
)

// merge reconciles the gathered verdicts into a single ConsensusResult.
// It depends only on the set of verdicts, never on arrival order: the
// verdicts are sorted by provider id before any field is derived.
func merge(verdicts []model.Verdict, cfg model.EnsembleConfig) model.ConsensusResult {
	switch len(verdicts) {
	case 0:
		return model.ConsensusResult{Level: model.LevelSkipped, Score: 0}
	case 1:
		v := verdicts[0]
		return model.ConsensusResult{
			Level:          model.LevelSingle,
			Score:          float64(v.Confidence),
			ConfidenceMean: float64(v.Confidence),
			Models:         []string{v.ProviderID},
			TotalCost:      v.CostEstimate,
			Synthesized:    v,
		}
	}

	sorted := make([]model.Verdict, len(verdicts))
	copy(sorted, verdicts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProviderID < sorted[j].ProviderID })

	mean, std := confidenceStats(sorted)

	synth := synthesize(sorted, mean)

	result := model.ConsensusResult{
		Score:          mean,
		ConfidenceMean: mean,
		ConfidenceStd:  std,
		Synthesized:    synth,
		Dissents:       dissents(sorted, synth),
	}
	for _, v := range sorted {
		result.Models = append(result.Models, v.ProviderID)
		result.TotalCost += v.CostEstimate
	}

	switch {
	case std > cfg.DispersionLimit:
		result.Level = model.LevelUntrusted
	case mean >= cfg.AuthoritativeScore:
		result.Level = model.LevelAuthoritative
	case mean >= cfg.HighScore:
		result.Level = model.LevelHigh
	default:
		result.Level = model.LevelDisputed
	}

	return result
}

// confidenceStats returns the mean and population standard deviation of
// the responder confidences.
func confidenceStats(verdicts []model.Verdict) (mean, std float64) {
	for _, v := range verdicts {
		mean += float64(v.Confidence)
	}
	mean /= float64(len(verdicts))

	var variance float64
	for _, v := range verdicts {
		d := float64(v.Confidence) - mean
		variance += d * d
	}
	variance /= float64(len(verdicts))

	return mean, math.Sqrt(variance)
}

// synthesize builds the merged verdict with a safety bias: factual errors
// and warnings are unioned (one flag is enough), while regulation
// approval requires a strict majority of responders; anything short of
// that is disputed. A regulation nobody approved but someone flagged
// missing stays missing.
func synthesize(verdicts []model.Verdict, mean float64) model.Verdict {
	synth := model.Verdict{
		ProviderID:      "consensus",
		FactualErrors:   union(verdicts, func(v model.Verdict) []string { return v.FactualErrors }),
		FactualWarnings: union(verdicts, func(v model.Verdict) []string { return v.FactualWarnings }),
		Confidence:      int(math.Round(mean)),
	}

	approvals := make(map[string]int)
	missing := make(map[string]int)
	all := make(map[string]bool)
	for _, v := range verdicts {
		for _, r := range v.RegulationsApproved {
			approvals[r]++
			all[r] = true
		}
		for _, r := range v.RegulationsDisputed {
			all[r] = true
		}
		for _, r := range v.RegulationsMissing {
			missing[r]++
			all[r] = true
		}
	}

	majority := len(verdicts) / 2 // approved iff count > majority
	for reg := range all {
		switch {
		case approvals[reg] > majority:
			synth.RegulationsApproved = append(synth.RegulationsApproved, reg)
		case approvals[reg] == 0 && missing[reg] > 0:
			synth.RegulationsMissing = append(synth.RegulationsMissing, reg)
		default:
			synth.RegulationsDisputed = append(synth.RegulationsDisputed, reg)
		}
	}
	sort.Strings(synth.RegulationsApproved)
	sort.Strings(synth.RegulationsDisputed)
	sort.Strings(synth.RegulationsMissing)

	// Cost: keep the most conservative (highest) estimate and gather the
	// distinct feedback lines.
	var feedback []string
	seen := make(map[string]bool)
	for _, v := range verdicts {
		if v.CostEstimate > synth.CostEstimate {
			synth.CostEstimate = v.CostEstimate
		}
		if v.CostFeedback != "" && !seen[v.CostFeedback] {
			seen[v.CostFeedback] = true
			feedback = append(feedback, v.CostFeedback)
		}
	}
	sort.Strings(feedback)
	synth.CostFeedback = strings.Join(feedback, "; ")

	return synth
}

// union collects the distinct, sorted values of one list field across all
// verdicts.
func union(verdicts []model.Verdict, field func(model.Verdict) []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range verdicts {
		for _, s := range field(v) {
			if s != "" && !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

// dissents lists, per provider, the fields where that provider's verdict
// diverges from the synthesized result.
func dissents(verdicts []model.Verdict, synth model.Verdict) []model.Dissent {
	var out []model.Dissent

	for _, v := range verdicts {
		if missed := difference(synth.FactualErrors, v.FactualErrors); len(missed) > 0 {
			out = append(out, model.Dissent{
				Provider: v.ProviderID,
				Field:    "factual_errors",
				Detail:   "did not flag: " + strings.Join(missed, "; "),
			})
		}

		approved := toSet(synth.RegulationsApproved)
		var contested []string
		for _, r := range v.RegulationsDisputed {
			if approved[r] {
				contested = append(contested, r)
			}
		}
		for _, r := range v.RegulationsMissing {
			if approved[r] {
				contested = append(contested, r)
			}
		}
		if len(contested) > 0 {
			sort.Strings(contested)
			out = append(out, model.Dissent{
				Provider: v.ProviderID,
				Field:    "regulations_approved",
				Detail:   "contested approved regulations: " + strings.Join(contested, "; "),
			})
		}

		var rejected []string
		for _, r := range v.RegulationsApproved {
			if !approved[r] {
				rejected = append(rejected, r)
			}
		}
		if len(rejected) > 0 {
			sort.Strings(rejected)
			out = append(out, model.Dissent{
				Provider: v.ProviderID,
				Field:    "regulations_disputed",
				Detail:   "approved regulations the consensus rejected: " + strings.Join(rejected, "; "),
			})
		}

		if d := float64(v.Confidence) - float64(synth.Confidence); math.Abs(d) >= 20 {
			out = append(out, model.Dissent{
				Provider: v.ProviderID,
				Field:    "confidence",
				Detail:   fmt.Sprintf("confidence %d diverges from consensus %d", v.Confidence, synth.Confidence),
			})
		}
	}

	return out
}

func difference(a, b []string) []string {
	have := toSet(b)
	var out []string
	for _, s := range a {
		if !have[s] {
			out = append(out, s)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
