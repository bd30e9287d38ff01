package model

import "encoding/json"

// Severity grades a validation issue.
type Severity string

const (
	// SeverityCritical blocks approval.
	SeverityCritical Severity = "critical"
	// SeverityWarning is flagged for review but does not block approval.
	SeverityWarning Severity = "warning"
)

// Cross-check names, in evaluation order.
const (
	CheckRequiredDocsPresent  = "required_docs_present"
	CheckNameMatch            = "name_match"
	CheckPolicyExists         = "policy_exists"
	CheckAmountWithinCoverage = "amount_within_coverage"
)

// CrossCheckNames lists every cross-check in evaluation order.
var CrossCheckNames = []string{
	CheckRequiredDocsPresent,
	CheckNameMatch,
	CheckPolicyExists,
	CheckAmountWithinCoverage,
}

// ValidationIssue is a single finding from cross-document validation.
type ValidationIssue struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult accumulates issues and cross-check outcomes for one claim.
// Validity is derived from both and is never stored.
type ValidationResult struct {
	Issues      []ValidationIssue `json:"issues"`
	CrossChecks map[string]bool   `json:"cross_checks"`
}

// NewValidationResult returns a result with every cross-check present and false.
func NewValidationResult() ValidationResult {
	checks := make(map[string]bool, len(CrossCheckNames))
	for _, name := range CrossCheckNames {
		checks[name] = false
	}
	return ValidationResult{
		Issues:      []ValidationIssue{},
		CrossChecks: checks,
	}
}

// AddIssue appends an issue, preserving insertion order.
func (r *ValidationResult) AddIssue(field, message string, severity Severity) {
	r.Issues = append(r.Issues, ValidationIssue{Field: field, Message: message, Severity: severity})
}

// SetCheck records the outcome of a named cross-check.
func (r *ValidationResult) SetCheck(name string, passed bool) {
	if r.CrossChecks == nil {
		r.CrossChecks = make(map[string]bool)
	}
	r.CrossChecks[name] = passed
}

// IsValid is true iff every cross-check passed and no issue is critical.
func (r ValidationResult) IsValid() bool {
	for _, passed := range r.CrossChecks {
		if !passed {
			return false
		}
	}
	return !r.HasCritical()
}

// HasCritical reports whether any issue is critical.
func (r ValidationResult) HasCritical() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// IssuesBySeverity returns the issues with severity s, in insertion order.
func (r ValidationResult) IssuesBySeverity(s Severity) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Severity == s {
			out = append(out, issue)
		}
	}
	return out
}

// MarshalJSON emits the derived is_valid alongside issues and cross_checks.
func (r ValidationResult) MarshalJSON() ([]byte, error) {
	issues := r.Issues
	if issues == nil {
		issues = []ValidationIssue{}
	}
	return json.Marshal(struct {
		IsValid     bool              `json:"is_valid"`
		Issues      []ValidationIssue `json:"issues"`
		CrossChecks map[string]bool   `json:"cross_checks"`
	}{
		IsValid:     r.IsValid(),
		Issues:      issues,
		CrossChecks: r.CrossChecks,
	})
}
