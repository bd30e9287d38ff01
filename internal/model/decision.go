package model

import "github.com/shopspring/decimal"

// ClaimStatus is the outcome of adjudication.
type ClaimStatus string

const (
	StatusApproved      ClaimStatus = "Approved"
	StatusRejected      ClaimStatus = "Rejected"
	StatusPendingReview ClaimStatus = "Pending Review"
)

// ClaimDecision is the single adjudication outcome for a claim.
type ClaimDecision struct {
	Status          ClaimStatus      `json:"status"`
	Confidence      float64          `json:"confidence"`
	ApprovedAmount  *decimal.Decimal `json:"approved_amount"`
	Reasons         []string         `json:"reasons"`
	Recommendations []string         `json:"recommendations"`
}
