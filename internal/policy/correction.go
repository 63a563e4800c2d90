package policy

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/factgate/internal/model"
)

// CorrectionLog is the append-only contract with the downstream
// correction/retraction store. Its schema and retention are owned
// downstream; this core only appends entries for fast-tracked content.
type CorrectionLog interface {
	Append(ctx context.Context, entry model.CorrectionEntry) error
}

// Recorder maps gate outcomes onto correction log entries.
type Recorder struct {
	log    CorrectionLog
	policy *Policy
}

// NewRecorder creates a correction recorder. A nil log disables recording.
func NewRecorder(log CorrectionLog, policy *Policy) *Recorder {
	return &Recorder{log: log, policy: policy}
}

// Record appends correction entries for a fast-tracked draft: every hold
// reason and every numeric contradiction becomes an entry keyed by the
// article slug, so the correction window can act on them later.
func (r *Recorder) Record(ctx context.Context, draft model.ArticleDraft, decision model.PublishDecision, ledger model.ClaimLedgerResult) error {
	if r.log == nil || !r.policy.FastTracked(draft.ContentType) {
		return nil
	}

	slug := draft.Slug
	if slug == "" {
		slug = Slugify(draft.Title)
	}
	now := time.Now().UTC()

	if decision.Decision != model.DecisionPublish {
		kind := model.CorrectionHold
		if decision.Decision == model.DecisionReject {
			kind = model.CorrectionRetraction
		}
		entry := model.CorrectionEntry{
			ID:        uuid.New().String(),
			Slug:      slug,
			Kind:      kind,
			Reasons:   decision.Reasons,
			CreatedAt: now,
		}
		if err := r.log.Append(ctx, entry); err != nil {
			return fmt.Errorf("append %s entry: %w", kind, err)
		}
	}

	for _, c := range ledger.Contradictions {
		entry := model.CorrectionEntry{
			ID:        uuid.New().String(),
			Slug:      slug,
			Kind:      model.CorrectionContradiction,
			Reasons:   []string{describeContradiction(c)},
			CreatedAt: now,
		}
		if err := r.log.Append(ctx, entry); err != nil {
			return fmt.Errorf("append contradiction entry: %w", err)
		}
	}

	return nil
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a stable correction-log key from an article title.
func Slugify(title string) string {
	s := nonSlugRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
