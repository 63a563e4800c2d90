package ledger

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/text"
)

var (
	markerRe = regexp.MustCompile(`\[S\d+\]`)
	numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)*%?`)
	digitRe  = regexp.MustCompile(`\d`)
	punctRe  = regexp.MustCompile(`[^\p{L}\s]`)
)

// Ledger extracts and cross-checks atomic claims from a draft body. It is
// synchronous, CPU-bound text processing, independent of the ensemble.
type Ledger struct {
	cfg      model.LedgerConfig
	triggers []*regexp.Regexp
}

// NewLedger creates a claim ledger from configuration.
func NewLedger(cfg model.LedgerConfig) *Ledger {
	triggers := make([]*regexp.Regexp, 0, len(cfg.PolicyTriggers))
	for _, t := range cfg.PolicyTriggers {
		triggers = append(triggers, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)+`\b`))
	}
	return &Ledger{cfg: cfg, triggers: triggers}
}

// Build extracts claims from the draft, resolves their citations against
// the evidence list, and applies the per-type issue rules. Claims are
// built fresh per run and never persisted.
func (l *Ledger) Build(draft model.ArticleDraft, evidence []model.EvidenceItem) model.ClaimLedgerResult {
	evIndex := make(map[string]model.EvidenceItem, len(evidence))
	for _, ev := range evidence {
		evIndex[ev.ID] = ev
	}

	var result model.ClaimLedgerResult

	for _, para := range text.Paragraphs(draft.Body) {
		citations := paragraphCitations(para)

		for _, sentence := range text.SplitSentences(para) {
			claimType, ok := l.classify(sentence, draft.Regulations)
			if !ok {
				continue
			}

			claim := model.Claim{
				ID:        fmt.Sprintf("C%d", len(result.Claims)+1),
				Text:      sentence,
				Type:      claimType,
				Citations: citations,
			}
			for _, id := range citations {
				if ev, found := evIndex[id]; found {
					claim.SourceIDs = append(claim.SourceIDs, ev.ID)
					claim.Domains = appendUnique(claim.Domains, ev.Domain)
				}
			}
			if claimType == model.ClaimNumeric {
				claim.Numbers = numberRe.FindAllString(markerRe.ReplaceAllString(sentence, ""), -1)
			}

			claim.Issues = l.checkClaim(claim)
			result.IssueCount += len(claim.Issues)

			switch claimType {
			case model.ClaimNumeric:
				result.NumericClaims++
			case model.ClaimRegulatory:
				result.RegulatoryClaims++
			case model.ClaimPolicy:
				result.PolicyClaims++
			}

			result.Claims = append(result.Claims, claim)
			if len(result.Claims) >= l.cfg.MaxClaims {
				result.Truncated = true
				result.Contradictions = l.findContradictions(result.Claims)
				return result
			}
		}
	}

	result.Contradictions = l.findContradictions(result.Claims)
	return result
}

// classify assigns a claim type by priority: numeric, then regulatory,
// then policy. A sentence matching none yields no claim. Citation markers
// are stripped first so the digit in "[S1]" never counts as numeric.
func (l *Ledger) classify(sentence string, regulations []string) (model.ClaimType, bool) {
	if digitRe.MatchString(markerRe.ReplaceAllString(sentence, "")) {
		return model.ClaimNumeric, true
	}

	lower := strings.ToLower(sentence)
	for _, reg := range regulations {
		if reg != "" && strings.Contains(lower, strings.ToLower(reg)) {
			return model.ClaimRegulatory, true
		}
	}

	for _, trigger := range l.triggers {
		if trigger.MatchString(sentence) {
			return model.ClaimPolicy, true
		}
	}

	return "", false
}

// checkClaim applies the citation sufficiency rules for the claim's type.
func (l *Ledger) checkClaim(c model.Claim) []string {
	var issues []string

	if l.cfg.RequireCitations && len(c.Citations) == 0 {
		issues = append(issues, "claim has no citation")
	}

	switch c.Type {
	case model.ClaimNumeric:
		if len(c.Citations) > 0 && len(distinct(c.SourceIDs)) < l.cfg.MinSourcesNumeric {
			issues = append(issues, fmt.Sprintf("numeric claim cites %d source(s), needs %d",
				len(distinct(c.SourceIDs)), l.cfg.MinSourcesNumeric))
		}
		if len(c.Citations) > 0 && len(distinct(c.Domains)) < l.cfg.MinDomainsNumeric {
			issues = append(issues, fmt.Sprintf("numeric claim spans %d domain(s), needs %d",
				len(distinct(c.Domains)), l.cfg.MinDomainsNumeric))
		}
	case model.ClaimRegulatory:
		if len(c.Citations) > 0 && len(distinct(c.SourceIDs)) < l.cfg.MinSourcesRegulation {
			issues = append(issues, fmt.Sprintf("regulatory claim cites %d source(s), needs %d",
				len(distinct(c.SourceIDs)), l.cfg.MinSourcesRegulation))
		}
	}

	return issues
}

// findContradictions groups numeric claims by normalized subject key and
// flags keys whose claims carry more than one distinct leading value.
func (l *Ledger) findContradictions(claims []model.Claim) []model.Contradiction {
	type group struct {
		values   map[string]bool
		ordered  []string
		claimIDs []string
	}
	groups := make(map[string]*group)
	var keys []string

	for _, c := range claims {
		if c.Type != model.ClaimNumeric || len(c.Numbers) == 0 {
			continue
		}
		key := subjectKey(c.Text, l.cfg.SubjectKeyWords)
		if key == "" {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &group{values: make(map[string]bool)}
			groups[key] = g
			keys = append(keys, key)
		}
		value := c.Numbers[0]
		if !g.values[value] {
			g.values[value] = true
			g.ordered = append(g.ordered, value)
		}
		g.claimIDs = append(g.claimIDs, c.ID)
	}

	var out []model.Contradiction
	sort.Strings(keys)
	for _, key := range keys {
		g := groups[key]
		if len(g.ordered) > 1 {
			out = append(out, model.Contradiction{
				SubjectKey: key,
				Values:     g.ordered,
				ClaimIDs:   g.claimIDs,
			})
		}
	}
	return out
}

// subjectKey normalizes a sentence into a grouping key: strip digits and
// punctuation, lower-case, take the leading n words.
func subjectKey(sentence string, n int) string {
	s := markerRe.ReplaceAllString(sentence, " ")
	s = strings.ToLower(s)
	s = digitRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, "")

	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// paragraphCitations returns the distinct, sorted [S#] markers in a
// paragraph, normalized to bare ids ("S1").
func paragraphCitations(para string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range markerRe.FindAllString(para, -1) {
		id := strings.Trim(m, "[]")
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func appendUnique(items []string, s string) []string {
	if s == "" {
		return items
	}
	for _, existing := range items {
		if existing == s {
			return items
		}
	}
	return append(items, s)
}

func distinct(items []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range items {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
