package citecheck

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/factgate/internal/model"
)

func testCitationConfig() model.CitationConfig {
	return model.CitationConfig{
		RequireSourcesSection: true,
		MinWordsPerParagraph:  25,
		RecencyDays:           365,
		RecencyOverrides:      map[string]int{"news": 14},
		MaxNgramWords:         8,
		SimilarityThreshold:   0.82,
		PrimaryDomains:        []string{"ec.europa.eu", "sec.gov", "eur-lex.europa.eu"},
	}
}

func cleanDraft() model.ArticleDraft {
	return model.ArticleDraft{
		Title:       "Data rules explained",
		Regulations: []string{"GDPR"},
		Body: "The regulation known as GDPR applies broadly to processors. [S1]\n\n" +
			"## Sources\n\n- [S1] https://ec.europa.eu/policy",
		Sources: []model.SourceRef{
			{ID: "S1", URL: "https://ec.europa.eu/policy", Domain: "ec.europa.eu"},
		},
	}
}

func cleanEvidence() []model.EvidenceItem {
	return []model.EvidenceItem{
		{ID: "S1", URL: "https://ec.europa.eu/policy", Domain: "ec.europa.eu", Published: "2026-08"},
	}
}

func TestValidate_CleanDraftPasses(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	result := v.Validate(context.Background(), cleanDraft(), cleanEvidence())
	if !result.Passes {
		t.Fatalf("clean draft should pass, issues: %v", result.Issues)
	}
	if result.Metrics["citation_density"] != 1.0 {
		t.Errorf("expected density 1.0, got %v", result.Metrics["citation_density"])
	}
}

func TestValidate_MissingSourcesSection(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	draft := cleanDraft()
	draft.Body = "The regulation known as GDPR applies broadly to processors. [S1]"

	result := v.Validate(context.Background(), draft, cleanEvidence())
	if result.Passes {
		t.Fatal("draft without ## Sources section must not pass")
	}
	if !hasIssueContaining(result.Issues, "Sources") {
		t.Errorf("expected a sources-section issue, got %v", result.Issues)
	}
}

func TestValidate_UnresolvedMarker(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	draft := cleanDraft()
	draft.Body = strings.Replace(draft.Body, "[S1]", "[S1] [S9]", 1)

	result := v.Validate(context.Background(), draft, cleanEvidence())
	if result.Passes {
		t.Fatal("unresolved marker must fail validation")
	}
	if !hasIssueContaining(result.Issues, "[S9]") {
		t.Errorf("expected an unresolved-marker issue, got %v", result.Issues)
	}
}

func TestValidate_UnusedSourceIsWarningOnly(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	draft := cleanDraft()
	draft.Sources = append(draft.Sources, model.SourceRef{ID: "S2", URL: "https://sec.gov/x", Domain: "sec.gov"})

	result := v.Validate(context.Background(), draft, cleanEvidence())
	if !result.Passes {
		t.Fatalf("an uncited declared source must not block, issues: %v", result.Issues)
	}
	if !hasIssueContaining(result.Warnings, "S2") {
		t.Errorf("expected a never-cited warning for S2, got %v", result.Warnings)
	}
}

func TestValidate_LongParagraphNeedsCitation(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	long := strings.Repeat("word ", 30) + "and so the argument concludes without any supporting reference at all."
	draft := cleanDraft()
	draft.Body = long + "\n\n" + draft.Body

	result := v.Validate(context.Background(), draft, cleanEvidence())
	if result.Passes {
		t.Fatal("a long uncited paragraph must fail validation")
	}
	if !hasIssueContaining(result.Issues, "no citation") {
		t.Errorf("expected a no-citation issue, got %v", result.Issues)
	}
	if result.Metrics["citation_density"].(float64) != 0 {
		t.Errorf("the only qualifying paragraph is uncited, expected density 0, got %v", result.Metrics["citation_density"])
	}
}

func TestValidate_UncitedNumericSentence(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	draft := cleanDraft()
	draft.Body = "Fines reached twenty million euros, a record amount.\n\n" + draft.Body
	clean := v.Validate(context.Background(), draft, cleanEvidence())
	if !clean.Passes {
		t.Fatalf("spelled-out numbers need no citation, issues: %v", clean.Issues)
	}

	draft = cleanDraft()
	draft.Body = "Fines reached 20 million euros this year alone.\n\n" + draft.Body
	result := v.Validate(context.Background(), draft, cleanEvidence())
	if result.Passes {
		t.Fatal("a digit-bearing sentence without a citation must fail")
	}
	if !hasIssueContaining(result.Issues, "uncited numeric sentence") {
		t.Errorf("expected an uncited-numeric issue, got %v", result.Issues)
	}
}

func TestValidate_RegulationMustAppearAndBeCited(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	// Never mentioned
	draft := cleanDraft()
	draft.Regulations = []string{"GDPR", "HIPAA"}
	result := v.Validate(context.Background(), draft, cleanEvidence())
	if !hasIssueContaining(result.Issues, "HIPAA") {
		t.Errorf("expected a never-appears issue for HIPAA, got %v", result.Issues)
	}

	// Mentioned but never cited
	draft = cleanDraft()
	draft.Body = "The regulation known as GDPR applies broadly to processors.\n\n## Sources\n\n- [S1] https://ec.europa.eu/policy"
	result = v.Validate(context.Background(), draft, cleanEvidence())
	if !hasIssueContaining(result.Issues, "never cited") {
		t.Errorf("expected a mentioned-but-uncited issue, got %v", result.Issues)
	}
}

func TestValidate_PrimarySourceCoverage(t *testing.T) {
	cfg := testCitationConfig()
	v := NewValidator(cfg, nil)

	secondary := []model.EvidenceItem{
		{ID: "S1", Domain: "techblog.example.com", Published: "2026-08"},
	}

	result := v.Validate(context.Background(), cleanDraft(), secondary)
	if !result.Passes {
		t.Fatalf("non-strict primary-source check must warn, not block: %v", result.Issues)
	}
	if !hasIssueContaining(result.Warnings, "primary-source") {
		t.Errorf("expected a primary-source warning, got %v", result.Warnings)
	}

	cfg.PrimaryStrict = true
	strict := NewValidator(cfg, nil)
	result = strict.Validate(context.Background(), cleanDraft(), secondary)
	if result.Passes {
		t.Error("strict mode must treat missing primary sources as an issue")
	}
}

func TestValidate_RecencyForNewsContent(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	fixed := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	draft := cleanDraft()
	draft.ContentType = "news"

	stale := []model.EvidenceItem{
		{ID: "S1", Domain: "ec.europa.eu", Published: "2026-07-01"},
	}
	result := v.Validate(context.Background(), draft, stale)
	if result.Passes {
		t.Fatal("news with only month-old evidence must fail the 14-day window")
	}
	if !hasIssueContaining(result.Issues, "14 days") {
		t.Errorf("expected a recency issue, got %v", result.Issues)
	}

	fresh := []model.EvidenceItem{
		{ID: "S1", Domain: "ec.europa.eu", Published: "2026-08-20"},
	}
	result = v.Validate(context.Background(), draft, fresh)
	if !result.Passes {
		t.Errorf("fresh evidence should satisfy recency, issues: %v", result.Issues)
	}
}

func TestValidate_RecencySkippedForTimelessContent(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	// No content-type override and no urgency signals: undated evidence is fine.
	result := v.Validate(context.Background(), cleanDraft(), []model.EvidenceItem{
		{ID: "S1", Domain: "ec.europa.eu"},
	})
	if !result.Passes {
		t.Errorf("timeless content should skip the recency check, issues: %v", result.Issues)
	}
}

func TestValidate_ParaphraseWarning(t *testing.T) {
	v := NewValidator(testCitationConfig(), nil)

	snippet := "the supervisory authority imposed a record fine for systematic violations of consent requirements"
	draft := cleanDraft()
	draft.Body = "Reportedly the supervisory authority imposed a record fine for systematic violations of consent requirements. [S1]\n\n" + draft.Body

	evidence := cleanEvidence()
	evidence[0].Snippet = snippet

	result := v.Validate(context.Background(), draft, evidence)
	if !hasIssueContaining(result.Warnings, "verbatim") {
		t.Errorf("expected a verbatim-run warning, got %v", result.Warnings)
	}
	if !result.Passes {
		t.Errorf("paraphrase risk must never block, issues: %v", result.Issues)
	}
}

func TestCitationDensity(t *testing.T) {
	long := strings.Repeat("word ", 30)
	body := long + "cited paragraph. [S1]\n\n" + long + "uncited paragraph.\n\nshort one."

	if got := CitationDensity(body, 25); got != 0.5 {
		t.Errorf("expected density 0.5, got %v", got)
	}
	if got := CitationDensity("tiny.", 25); got != 1.0 {
		t.Errorf("a body with no qualifying paragraphs scores 1.0, got %v", got)
	}
}

func hasIssueContaining(items []string, substr string) bool {
	for _, s := range items {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
