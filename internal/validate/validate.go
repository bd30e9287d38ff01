// Package validate cross-checks the records extracted from one claim's
// documents.
package validate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/claims-cli/internal/model"
)

// Validate runs every cross-check over the retained bill, discharge summary
// and ID card. Any argument may be nil. Issues are appended in check order.
func Validate(bill *model.BillData, discharge *model.DischargeData, card *model.IDCardData) model.ValidationResult {
	r := model.NewValidationResult()

	allPresent := bill != nil && discharge != nil && card != nil
	r.SetCheck(model.CheckRequiredDocsPresent, allPresent)
	if !allPresent {
		r.AddIssue("documents", missingDocsMessage(bill, discharge, card), model.SeverityCritical)
	} else {
		checkNames(&r, bill, discharge, card)
	}

	if card != nil && card.PolicyNumber != nil && strings.TrimSpace(*card.PolicyNumber) != "" {
		r.SetCheck(model.CheckPolicyExists, true)
	} else {
		r.AddIssue("policy_number", "Policy number not found in ID card", model.SeverityCritical)
	}

	if bill != nil && card != nil {
		checkCoverage(&r, bill, card)
	}

	return r
}

func missingDocsMessage(bill *model.BillData, discharge *model.DischargeData, card *model.IDCardData) string {
	var missing []string
	if bill == nil {
		missing = append(missing, model.DocumentTypeBill.Label())
	}
	if discharge == nil {
		missing = append(missing, model.DocumentTypeDischargeSummary.Label())
	}
	if card == nil {
		missing = append(missing, model.DocumentTypeIDCard.Label())
	}
	return "Missing required documents: " + strings.Join(missing, ", ")
}

// checkNames compares patient names with bidirectional containment so that
// truncated or partial names still match.
func checkNames(r *model.ValidationResult, bill *model.BillData, discharge *model.DischargeData, card *model.IDCardData) {
	billName := normName(bill.PatientName)
	dischargeName := normName(discharge.PatientName)
	idName := normName(card.PatientName)

	if billName == "" || dischargeName == "" || idName == "" {
		var missing []string
		if billName == "" {
			missing = append(missing, model.DocumentTypeBill.Label())
		}
		if dischargeName == "" {
			missing = append(missing, model.DocumentTypeDischargeSummary.Label())
		}
		if idName == "" {
			missing = append(missing, model.DocumentTypeIDCard.Label())
		}
		r.AddIssue("patient_name", "Patient name missing in: "+strings.Join(missing, ", "), model.SeverityWarning)
		return
	}

	if overlaps(billName, dischargeName) && overlaps(billName, idName) {
		r.SetCheck(model.CheckNameMatch, true)
		return
	}
	r.AddIssue("patient_name",
		fmt.Sprintf("Name mismatch: Bill='%s', Discharge='%s', ID='%s'", billName, dischargeName, idName),
		model.SeverityCritical)
}

func checkCoverage(r *model.ValidationResult, bill *model.BillData, card *model.IDCardData) {
	amount := orZero(bill.TotalAmount)
	coverage := orZero(card.CoverageAmount)

	switch {
	case amount.Sign() <= 0:
		r.AddIssue("total_amount", "Total amount not found in bill", model.SeverityCritical)
	case coverage.Sign() <= 0:
		r.AddIssue("coverage_amount", "Coverage amount not found in ID card", model.SeverityWarning)
	case amount.LessThanOrEqual(coverage):
		r.SetCheck(model.CheckAmountWithinCoverage, true)
	default:
		r.AddIssue("amount",
			fmt.Sprintf("Bill amount %s exceeds coverage %s", model.FormatAmount(amount), model.FormatAmount(coverage)),
			model.SeverityCritical)
	}
}

func normName(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*s))
}

func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
