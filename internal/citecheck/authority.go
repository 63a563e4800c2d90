package citecheck

import "strings"

// AuthorityClassifier decides whether an evidence domain counts as a
// primary regulatory source, based on a configured allow-list plus the
// usual government/academic TLD heuristics.
type AuthorityClassifier struct {
	primary map[string]bool
}

// NewAuthorityClassifier creates a classifier from the allow-list.
func NewAuthorityClassifier(primaryDomains []string) *AuthorityClassifier {
	primary := make(map[string]bool, len(primaryDomains))
	for _, d := range primaryDomains {
		primary[strings.ToLower(d)] = true
	}
	return &AuthorityClassifier{primary: primary}
}

// IsPrimary reports whether a domain is a primary regulatory source.
// Matches an allow-list entry exactly or as a parent domain, so
// "alerts.sec.gov" matches "sec.gov".
func (a *AuthorityClassifier) IsPrimary(domain string) bool {
	host := strings.ToLower(domain)
	if i := strings.Index(host, ":"); i > 0 {
		host = host[:i]
	}

	if a.primary[host] {
		return true
	}
	for p := range a.primary {
		if strings.HasSuffix(host, "."+p) {
			return true
		}
	}

	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") {
		return true
	}
	if strings.HasSuffix(host, ".ac.uk") {
		return true
	}

	return false
}
