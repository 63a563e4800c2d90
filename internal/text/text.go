package text

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

// Paragraphs splits a markdown body into blank-line-delimited paragraphs,
// skipping headings. Everything under a "## Sources" heading is excluded:
// source lists are declarations, not prose claims.
func Paragraphs(body string) []string {
	body = cutSourcesSection(body)

	var paras []string
	for _, block := range blankLineRe.Split(body, -1) {
		block = strings.TrimSpace(block)
		if block == "" || strings.HasPrefix(block, "#") {
			continue
		}
		paras = append(paras, stripInlineHTML(block))
	}
	return paras
}

var sourcesHeadingRe = regexp.MustCompile(`(?mi)^##\s+Sources\s*$`)

func cutSourcesSection(body string) string {
	if loc := sourcesHeadingRe.FindStringIndex(body); loc != nil {
		return body[:loc[0]]
	}
	return body
}

// stripInlineHTML removes raw HTML embedded in markdown, keeping only the
// visible text. Script and style subtrees are dropped entirely.
func stripInlineHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}

// SplitSentences splits paragraph text into sentences. Trailing citation
// markers after a terminator attach to the preceding sentence, so
// "...in 2024. [S1]" stays one sentence.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		if s == "" {
			return
		}
		if isMarkerRun(s) && len(sentences) > 0 {
			sentences[len(sentences)-1] += " " + s
			return
		}
		if len(s) >= 3 {
			sentences = append(sentences, s)
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Look ahead to avoid splitting on abbreviations like "3.5"
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\t' {
				flush()
			}
		}
	}
	flush()

	return sentences
}

var markerRunRe = regexp.MustCompile(`^(\[S\d+\][\s,;]*)+$`)

func isMarkerRun(s string) bool {
	return markerRunRe.MatchString(s)
}
