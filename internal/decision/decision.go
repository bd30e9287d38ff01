// Package decision maps a claim's validation outcome to an adjudication
// decision.
package decision

import (
	"fmt"

	"github.com/sells-group/claims-cli/internal/model"
)

// Fixed confidence per outcome.
const (
	ConfidenceApproved      = 0.95
	ConfidenceRejected      = 0.90
	ConfidencePendingReview = 0.60
)

var (
	rejectedRecommendations = []string{
		"Submit complete documentation",
		"Verify patient name consistency across all documents",
	}
	pendingRecommendations = []string{"Manual review recommended"}
)

// Decide returns exactly one of Approved, Rejected or Pending Review for v.
// bill may be nil; it only supplies the approved amount.
func Decide(bill *model.BillData, v model.ValidationResult) model.ClaimDecision {
	switch {
	case v.IsValid():
		return approve(bill)
	case v.HasCritical():
		critical := v.IssuesBySeverity(model.SeverityCritical)
		reasons := make([]string, 0, len(critical)+1)
		reasons = append(reasons, fmt.Sprintf("Found %d critical issues", len(critical)))
		for _, issue := range critical {
			reasons = append(reasons, issue.Field+": "+issue.Message)
		}
		return model.ClaimDecision{
			Status:          model.StatusRejected,
			Confidence:      ConfidenceRejected,
			Reasons:         reasons,
			Recommendations: append([]string(nil), rejectedRecommendations...),
		}
	default:
		warnings := v.IssuesBySeverity(model.SeverityWarning)
		reasons := make([]string, 0, len(warnings)+1)
		reasons = append(reasons, "Minor validation issues detected")
		for _, issue := range warnings {
			reasons = append(reasons, issue.Field+": "+issue.Message)
		}
		return model.ClaimDecision{
			Status:          model.StatusPendingReview,
			Confidence:      ConfidencePendingReview,
			Reasons:         reasons,
			Recommendations: append([]string(nil), pendingRecommendations...),
		}
	}
}

// approve builds an Approved decision. A bill without a total still approves
// with a nil amount.
func approve(bill *model.BillData) model.ClaimDecision {
	d := model.ClaimDecision{
		Status:     model.StatusApproved,
		Confidence: ConfidenceApproved,
		Reasons:    []string{"All validations passed", "Cross-document verification successful"},
	}
	if bill != nil && bill.TotalAmount != nil {
		amount := *bill.TotalAmount
		d.ApprovedAmount = &amount
		d.Reasons = append(d.Reasons, fmt.Sprintf("Amount %s approved", model.FormatAmount(amount)))
	}
	return d
}
