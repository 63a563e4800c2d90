package model

// SourceRef is a source declared by an article draft ("S1", "S2", ...)
type SourceRef struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// ArticleDraft is a machine-drafted article awaiting a publish decision.
// It is produced upstream by the drafting agents and is read-only here.
type ArticleDraft struct {
	Title        string      `json:"title"`
	Slug         string      `json:"slug,omitempty"` // correction log key; derived from title if empty
	Body         string      `json:"body"`           // markdown
	Sources      []SourceRef `json:"sources"`
	Regulations  []string    `json:"regulations"`
	ContentType  string      `json:"content_type"`
	QualityScore float64     `json:"quality_score"`
}

// EvidenceItem is a single piece of research evidence backing a draft.
// Immutable once produced.
type EvidenceItem struct {
	ID          string  `json:"id"` // matches citation markers: "S1"...
	URL         string  `json:"url"`
	Domain      string  `json:"domain"`
	Publisher   string  `json:"publisher,omitempty"`
	Published   string  `json:"published,omitempty"` // partial dates allowed: YYYY, YYYY-MM, YYYY-MM-DD
	Snippet     string  `json:"snippet,omitempty"`
	Credibility float64 `json:"credibility,omitempty"`
}
