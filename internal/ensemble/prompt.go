package ensemble

import (
	"fmt"
	"strings"
)

// ArticleInput is the distilled article view sent to the review ensemble.
type ArticleInput struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Regulations []string `json:"regulations"`
	Costs       string   `json:"costs,omitempty"`
	Topic       string   `json:"topic,omitempty"`
}

// digest is the canonical content string used for cache fingerprinting.
func (in ArticleInput) digest() string {
	return strings.Join([]string{
		in.Title, in.Summary, strings.Join(in.Regulations, "|"), in.Costs, in.Topic,
	}, "\x1f")
}

// BuildPrompt constructs the adversarial review prompt. Every provider in
// an ensemble call receives this identical prompt.
func BuildPrompt(in ArticleInput) string {
	var b strings.Builder

	b.WriteString(`You are reviewing a machine-drafted article before publication. Your job is ADVERSARIAL: actively look for factual errors, misstated regulations, and unsupported cost figures.

CRITICAL RULES:
1. Respond with ONE JSON object and nothing else. No prose, no code fences.
2. Only dispute what you have concrete grounds to dispute; do not invent problems.
3. If you cannot assess a regulation, list it under "regulations_missing".
4. "factual_errors" is for statements you are confident are wrong. Doubts belong in "factual_warnings".
5. "confidence" is 0-100: your overall confidence that the article is factually sound.

Required JSON shape:
{"regulations_approved": [], "regulations_disputed": [], "regulations_missing": [], "factual_errors": [], "factual_warnings": [], "cost_estimate": 0, "cost_feedback": "", "confidence": 0}

Article under review:
`)

	fmt.Fprintf(&b, "- Title: %s\n", in.Title)
	if in.Topic != "" {
		fmt.Fprintf(&b, "- Topic: %s\n", in.Topic)
	}
	if len(in.Regulations) > 0 {
		fmt.Fprintf(&b, "- Claimed regulations: %s\n", strings.Join(in.Regulations, "; "))
	}
	if in.Costs != "" {
		fmt.Fprintf(&b, "- Claimed costs: %s\n", in.Costs)
	}
	fmt.Fprintf(&b, "\nSummary:\n%s\n", in.Summary)

	return b.String()
}
