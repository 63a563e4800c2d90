package citecheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/text"
)

var (
	markerRe         = regexp.MustCompile(`\[S\d+\]`)
	digitRe          = regexp.MustCompile(`\d`)
	sourcesSectionRe = regexp.MustCompile(`(?mi)^##\s+Sources\s*$`)
)

// nowFunc is the clock used for recency checks (injectable for tests)
var nowFunc = time.Now

// Validator cross-checks a draft's citations against its declared sources
// and evidence. Every check produces a structured issue or warning, never
// an error: Passes is false iff at least one issue fired.
type Validator struct {
	cfg       model.CitationConfig
	authority *AuthorityClassifier
	links     *LinkChecker // nil unless the live link check is enabled
	log       *slog.Logger
}

// NewValidator creates a citation validator from configuration.
func NewValidator(cfg model.CitationConfig, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	v := &Validator{
		cfg:       cfg,
		authority: NewAuthorityClassifier(cfg.PrimaryDomains),
		log:       log,
	}
	if cfg.LinkCheck.Enabled {
		v.links = NewLinkChecker(cfg.LinkCheck)
	}
	return v
}

// Validate runs all citation checks over the draft and evidence.
func (v *Validator) Validate(ctx context.Context, draft model.ArticleDraft, evidence []model.EvidenceItem) model.CitationValidationResult {
	var issues, warnings []string

	declared := make(map[string]bool, len(draft.Sources))
	for _, s := range draft.Sources {
		declared[s.ID] = true
	}

	// 1. Literal "## Sources" section
	if v.cfg.RequireSourcesSection && !sourcesSectionRe.MatchString(draft.Body) {
		issues = append(issues, `missing "## Sources" section`)
	}

	// 2. Marker resolution both ways
	used := make(map[string]bool)
	for _, m := range markerRe.FindAllString(draft.Body, -1) {
		used[strings.Trim(m, "[]")] = true
	}
	for _, id := range sortedKeys(used) {
		if !declared[id] {
			issues = append(issues, fmt.Sprintf("citation [%s] does not resolve to a declared source", id))
		}
	}
	for _, s := range draft.Sources {
		if !used[s.ID] {
			warnings = append(warnings, fmt.Sprintf("declared source %s is never cited", s.ID))
		}
	}

	paragraphs := text.Paragraphs(draft.Body)
	citedParagraphs := 0
	qualifying := 0

	for i, para := range paragraphs {
		hasMarker := markerRe.MatchString(para)
		words := len(strings.Fields(para))

		if words > v.cfg.MinWordsPerParagraph {
			qualifying++
			if hasMarker {
				citedParagraphs++
			} else {
				// 3. Long paragraphs must carry a citation
				issues = append(issues, fmt.Sprintf("paragraph %d (%d words) has no citation", i+1, words))
			}
		}

		// 4. Sentences with digits must carry a citation. This overlaps
		// with the claim ledger's numeric rule on purpose: two
		// independent layers, two chances to catch an uncited number.
		for _, sentence := range text.SplitSentences(para) {
			if digitRe.MatchString(sentence) && !markerRe.MatchString(sentence) {
				issues = append(issues, fmt.Sprintf("uncited numeric sentence: %s", snippetOf(sentence)))
			}
		}
	}

	// 5. Declared regulations must appear and be cited
	issues = append(issues, v.checkRegulations(draft, paragraphs)...)

	// 6. Primary-source coverage for regulatory content
	if len(draft.Regulations) > 0 {
		if msg, ok := v.checkPrimarySources(evidence); !ok {
			if v.cfg.PrimaryStrict {
				issues = append(issues, msg)
			} else {
				warnings = append(warnings, msg)
			}
		}
	}

	// 7. Recency for time-sensitive content
	if msg, ok := v.checkRecency(draft, evidence); !ok {
		issues = append(issues, msg)
	}

	// 8. Paraphrase risk per evidence snippet (never blocking)
	warnings = append(warnings, v.checkParaphrase(draft.Body, evidence)...)

	// Optional live link probes (never blocking)
	if v.links != nil {
		warnings = append(warnings, v.links.Check(ctx, evidence)...)
	}

	density := 1.0
	if qualifying > 0 {
		density = float64(citedParagraphs) / float64(qualifying)
	}

	return model.CitationValidationResult{
		Passes:   len(issues) == 0,
		Issues:   issues,
		Warnings: warnings,
		Metrics: map[string]interface{}{
			"paragraphs":            len(paragraphs),
			"qualifying_paragraphs": qualifying,
			"cited_paragraphs":      citedParagraphs,
			"citation_density":      density,
			"markers_used":          len(used),
			"sources_declared":      len(draft.Sources),
			"evidence_items":        len(evidence),
		},
	}
}

// checkRegulations verifies each declared regulation appears verbatim
// (case-insensitive) and that its sentence carries a citation.
func (v *Validator) checkRegulations(draft model.ArticleDraft, paragraphs []string) []string {
	var issues []string

	for _, reg := range draft.Regulations {
		if reg == "" {
			continue
		}
		lowerReg := strings.ToLower(reg)

		mentioned := false
		cited := false
		for _, para := range paragraphs {
			for _, sentence := range text.SplitSentences(para) {
				if !strings.Contains(strings.ToLower(sentence), lowerReg) {
					continue
				}
				mentioned = true
				if markerRe.MatchString(sentence) {
					cited = true
				}
			}
		}

		switch {
		case !mentioned:
			issues = append(issues, fmt.Sprintf("declared regulation %q never appears in the body", reg))
		case !cited:
			issues = append(issues, fmt.Sprintf("regulation %q is mentioned but never cited", reg))
		}
	}

	return issues
}

// checkPrimarySources requires at least one evidence item from the
// primary-source allow-list when the draft makes regulatory claims.
func (v *Validator) checkPrimarySources(evidence []model.EvidenceItem) (string, bool) {
	for _, ev := range evidence {
		if v.authority.IsPrimary(ev.Domain) {
			return "", true
		}
	}
	return "regulatory content has no primary-source evidence", false
}

// checkRecency requires at least one dated evidence item within the
// recency window when the content signals time-sensitivity.
func (v *Validator) checkRecency(draft model.ArticleDraft, evidence []model.EvidenceItem) (string, bool) {
	days, typeSensitive := v.cfg.RecencyOverrides[strings.ToLower(draft.ContentType)]
	if !typeSensitive {
		if !isTimeSensitive(draft.Title, draft.Body) {
			return "", true
		}
		days = v.cfg.RecencyDays
	}

	cutoff := nowFunc().AddDate(0, 0, -days)
	for _, ev := range evidence {
		if published, ok := ParsePublished(ev.Published); ok && published.After(cutoff) {
			return "", true
		}
	}

	return fmt.Sprintf("time-sensitive content has no evidence published within %d days", days), false
}

// checkParaphrase flags snippets the body reproduces too closely, either
// by a verbatim n-gram run or by overall similarity.
func (v *Validator) checkParaphrase(body string, evidence []model.EvidenceItem) []string {
	var warnings []string

	for _, ev := range evidence {
		if ev.Snippet == "" {
			continue
		}

		if hasVerbatimRun(body, ev.Snippet, v.cfg.MaxNgramWords) {
			warnings = append(warnings, fmt.Sprintf(
				"body contains a verbatim %d-word run from evidence %s", v.cfg.MaxNgramWords, ev.ID))
			continue
		}
		if score := similarity(body, ev.Snippet); score >= v.cfg.SimilarityThreshold {
			warnings = append(warnings, fmt.Sprintf(
				"body similarity to evidence %s is %.2f (threshold %.2f)", ev.ID, score, v.cfg.SimilarityThreshold))
		}
	}

	return warnings
}

// CitationDensity computes the share of qualifying paragraphs (longer
// than minWords) that carry at least one citation marker. A body with no
// qualifying paragraphs has nothing to cite and scores 1.
func CitationDensity(body string, minWords int) float64 {
	qualifying, cited := 0, 0
	for _, para := range text.Paragraphs(body) {
		if len(strings.Fields(para)) > minWords {
			qualifying++
			if markerRe.MatchString(para) {
				cited++
			}
		}
	}
	if qualifying == 0 {
		return 1.0
	}
	return float64(cited) / float64(qualifying)
}

func snippetOf(s string) string {
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
