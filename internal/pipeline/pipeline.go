package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/factgate/internal/citecheck"
	"github.com/ppiankov/factgate/internal/ensemble"
	"github.com/ppiankov/factgate/internal/ledger"
	"github.com/ppiankov/factgate/internal/model"
	"github.com/ppiankov/factgate/internal/policy"
	"github.com/ppiankov/factgate/internal/text"
)

// ConsensusValidator is the ensemble surface the pipeline depends on.
type ConsensusValidator interface {
	Validate(ctx context.Context, in ensemble.ArticleInput) model.ConsensusResult
}

// Reviewer runs the complete review: claim ledger, citation validation,
// ensemble consensus, and the publish gate.
type Reviewer struct {
	claims    *ledger.Ledger
	citations *citecheck.Validator
	consensus ConsensusValidator
	gate      *policy.Policy
	recorder  *policy.Recorder
	cfg       *model.Config
	log       *slog.Logger
}

// NewReviewer wires the review pipeline. The consensus validator and the
// correction log are injected; everything else is built from config.
func NewReviewer(cfg *model.Config, consensus ConsensusValidator, corrections policy.CorrectionLog, log *slog.Logger) *Reviewer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gate := policy.NewPolicy(cfg.Policy)

	return &Reviewer{
		claims:    ledger.NewLedger(cfg.Ledger),
		citations: citecheck.NewValidator(cfg.Citation, log),
		consensus: consensus,
		gate:      gate,
		recorder:  policy.NewRecorder(corrections, gate),
		cfg:       cfg,
		log:       log,
	}
}

// Review runs one publish review over a draft and its evidence.
func (r *Reviewer) Review(ctx context.Context, draft model.ArticleDraft, evidence []model.EvidenceItem) (*model.ReviewReport, error) {
	if draft.Body == "" {
		return nil, fmt.Errorf("draft has no body")
	}

	slug := draft.Slug
	if slug == "" {
		slug = policy.Slugify(draft.Title)
	}

	// 1. Extract and cross-check claims
	ledgerResult := r.claims.Build(draft, evidence)
	r.log.Debug("claim ledger built",
		"claims", ledgerResult.ClaimCount(),
		"issues", ledgerResult.IssueCount,
		"contradictions", len(ledgerResult.Contradictions))

	// 2. Validate citations
	citationResult := r.citations.Validate(ctx, draft, evidence)

	// 3. Citation density for the gate
	density := citecheck.CitationDensity(draft.Body, r.cfg.Citation.MinWordsPerParagraph)

	// 4. Adversarial ensemble review
	consensusResult := r.consensus.Validate(ctx, articleInput(draft))
	r.log.Info("consensus computed",
		"level", consensusResult.Level,
		"score", consensusResult.Score,
		"models", consensusResult.Models,
		"cached", consensusResult.FromCache)

	// 5. Publish gate
	decision := r.gate.Evaluate(draft, evidence, consensusResult, citationResult, ledgerResult, density)

	// 6. Correction log for fast-tracked content; failures degrade to a
	// warning, they never block the decision.
	if err := r.recorder.Record(ctx, draft, decision, ledgerResult); err != nil {
		r.log.Warn("correction log append failed", "slug", slug, "error", err)
	}

	return &model.ReviewReport{
		RunID:           uuid.New().String(),
		Title:           draft.Title,
		Slug:            slug,
		ReviewedAt:      time.Now().UTC(),
		Ledger:          ledgerResult,
		Citations:       citationResult,
		Consensus:       consensusResult,
		CitationDensity: density,
		Decision:        decision,
	}, nil
}

// articleInput distills the draft into the view the ensemble reviews.
func articleInput(draft model.ArticleDraft) ensemble.ArticleInput {
	return ensemble.ArticleInput{
		Title:       draft.Title,
		Summary:     summarize(draft.Body),
		Regulations: draft.Regulations,
		Costs:       costMentions(draft.Body),
		Topic:       draft.ContentType,
	}
}

const maxSummaryChars = 1500

// summarize takes the leading paragraphs of the body, up to a size cap.
func summarize(body string) string {
	var b strings.Builder
	for _, para := range text.Paragraphs(body) {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(para)
		if b.Len() >= maxSummaryChars {
			break
		}
	}
	s := b.String()
	if len(s) > maxSummaryChars {
		s = s[:maxSummaryChars]
	}
	return s
}

// costMentions gathers sentences that look like cost statements so the
// ensemble can challenge the figures.
func costMentions(body string) string {
	var mentions []string
	for _, para := range text.Paragraphs(body) {
		for _, sentence := range text.SplitSentences(para) {
			lower := strings.ToLower(sentence)
			if strings.ContainsAny(sentence, "$€£") ||
				strings.Contains(lower, "cost") || strings.Contains(lower, "fine") ||
				strings.Contains(lower, "penalty") {
				mentions = append(mentions, sentence)
			}
		}
	}
	joined := strings.Join(mentions, " ")
	if len(joined) > 500 {
		joined = joined[:500]
	}
	return joined
}
