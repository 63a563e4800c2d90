package citecheck

import (
	"strings"
	"time"
)

// partial date layouts, most specific first
var publishedLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParsePublished parses a partial evidence date (YYYY, YYYY-MM, or
// YYYY-MM-DD). Unparseable dates report ok=false; they never error.
func ParsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// timeSensitiveSignals mark a draft as needing recent evidence even when
// its content type carries no recency override.
var timeSensitiveSignals = []string{
	"breaking", "today", "this week", "this month", "latest",
	"just announced", "now in effect", "takes effect",
}

// isTimeSensitive reports whether the title or body signals urgency.
func isTimeSensitive(title, body string) bool {
	haystack := strings.ToLower(title + " " + body)
	for _, signal := range timeSensitiveSignals {
		if strings.Contains(haystack, signal) {
			return true
		}
	}
	return false
}
