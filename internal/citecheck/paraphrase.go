package citecheck

import (
	"regexp"
	"strings"
)

const similarityWindow = 2000 // chars considered for the sequence ratio

var wordRe = regexp.MustCompile(`[\p{L}\d]+`)

func tokenize(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// hasVerbatimRun slides an n-gram window across the snippet tokens and
// reports whether any window appears verbatim in the body.
func hasVerbatimRun(body, snippet string, n int) bool {
	snippetTokens := tokenize(snippet)
	if len(snippetTokens) < n {
		return false
	}

	normalizedBody := " " + strings.Join(tokenize(body), " ") + " "
	for i := 0; i+n <= len(snippetTokens); i++ {
		window := " " + strings.Join(snippetTokens[i:i+n], " ") + " "
		if strings.Contains(normalizedBody, window) {
			return true
		}
	}
	return false
}

// similarity scores how close the body is to a snippet: the max of token
// Jaccard overlap and a sequence ratio over the first 2000 characters.
func similarity(body, snippet string) float64 {
	a := tokenize(truncate(body, similarityWindow))
	b := tokenize(truncate(snippet, similarityWindow))

	j := jaccard(a, b)
	r := sequenceRatio(a, b)
	if r > j {
		return r
	}
	return j
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// sequenceRatio is 2*LCS/(len(a)+len(b)) over token sequences, the token
// analogue of a difflib ratio.
func sequenceRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Rolling single-row LCS; inputs are already capped by similarityWindow.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}
