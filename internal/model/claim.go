package model

// ClaimType categorizes an extracted claim. Types are mutually exclusive;
// classification tries numeric, then regulatory, then policy.
type ClaimType string

const (
	ClaimNumeric    ClaimType = "numeric"
	ClaimRegulatory ClaimType = "regulatory"
	ClaimPolicy     ClaimType = "policy"
)

// Claim is one sentence-level verifiable assertion extracted from a draft.
// Claims are built fresh per validation run and never persisted.
type Claim struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Type      ClaimType `json:"type"`
	Citations []string  `json:"citations,omitempty"` // [S#] markers from the enclosing paragraph
	SourceIDs []string  `json:"source_ids,omitempty"`
	Domains   []string  `json:"domains,omitempty"`
	Numbers   []string  `json:"numbers,omitempty"` // numeric tokens in the sentence
	Issues    []string  `json:"issues,omitempty"`
}

// Contradiction flags two or more numeric claims about the same subject
// that carry different values.
type Contradiction struct {
	SubjectKey string   `json:"subject_key"`
	Values     []string `json:"values"`
	ClaimIDs   []string `json:"claim_ids"`
}

// ClaimLedgerResult is the output of a claim ledger build.
type ClaimLedgerResult struct {
	Claims           []Claim         `json:"claims"`
	Contradictions   []Contradiction `json:"contradictions,omitempty"`
	NumericClaims    int             `json:"numeric_claims"`
	RegulatoryClaims int             `json:"regulatory_claims"`
	PolicyClaims     int             `json:"policy_claims"`
	IssueCount       int             `json:"issue_count"`
	Truncated        bool            `json:"truncated,omitempty"` // max_claims ceiling reached
}

// ClaimCount returns the number of extracted claims.
func (r ClaimLedgerResult) ClaimCount() int {
	return len(r.Claims)
}
