package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is the structured data extracted from one classified document.
// Each document type has exactly one variant with a fixed field set; a field
// that could not be extracted is nil, never missing.
type Record interface {
	DocumentType() DocumentType
}

// BillData is extracted from a hospital bill.
type BillData struct {
	BillNumber   *string          `json:"bill_number"`
	PatientName  *string          `json:"patient_name"`
	HospitalName *string          `json:"hospital_name"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	Date         *string          `json:"date"`
}

// DischargeData is extracted from a discharge summary.
type DischargeData struct {
	PatientName      *string `json:"patient_name"`
	Diagnosis        *string `json:"diagnosis"`
	AdmissionDate    *string `json:"admission_date"`
	DischargeDate    *string `json:"discharge_date"`
	DoctorName       *string `json:"doctor_name"`
	TreatmentSummary *string `json:"treatment_summary"`
}

// IDCardData is extracted from an insurance ID card.
type IDCardData struct {
	PolicyNumber     *string          `json:"policy_number"`
	PatientName      *string          `json:"patient_name"`
	InsuranceCompany *string          `json:"insurance_company"`
	CoverageAmount   *decimal.Decimal `json:"coverage_amount"`
	Validity         *string          `json:"validity"`
}

// PharmacyData is extracted from a pharmacy bill or receipt.
type PharmacyData struct {
	PharmacyName *string          `json:"pharmacy_name"`
	PatientName  *string          `json:"patient_name"`
	BillNumber   *string          `json:"bill_number"`
	BillDate     *string          `json:"bill_date"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
}

// ClaimFormData is extracted from an insurance claim form.
type ClaimFormData struct {
	PatientName  *string          `json:"patient_name"`
	PolicyNumber *string          `json:"policy_number"`
	ClaimAmount  *decimal.Decimal `json:"claim_amount"`
	ClaimDate    *string          `json:"claim_date"`
	HospitalName *string          `json:"hospital_name"`
}

// UnknownData is the empty record for documents that could not be classified.
type UnknownData struct{}

func (*BillData) DocumentType() DocumentType      { return DocumentTypeBill }
func (*DischargeData) DocumentType() DocumentType { return DocumentTypeDischargeSummary }
func (*IDCardData) DocumentType() DocumentType    { return DocumentTypeIDCard }
func (*PharmacyData) DocumentType() DocumentType  { return DocumentTypePharmacyBill }
func (*ClaimFormData) DocumentType() DocumentType { return DocumentTypeClaimForm }
func (*UnknownData) DocumentType() DocumentType   { return DocumentTypeUnknown }

// Fields is the loose key/value bag a strategy produces before it is folded
// into a typed Record. Values may be strings, numbers or nil.
type Fields map[string]any

// NewRecord folds f into the variant for t. Keys outside the variant's field
// set are ignored; values that cannot be converted leave the field nil.
func NewRecord(t DocumentType, f Fields) Record {
	switch t {
	case DocumentTypeBill:
		return &BillData{
			BillNumber:   f.String("bill_number"),
			PatientName:  f.String("patient_name"),
			HospitalName: f.String("hospital_name"),
			TotalAmount:  f.Amount("total_amount"),
			Date:         f.String("date"),
		}
	case DocumentTypeDischargeSummary:
		return &DischargeData{
			PatientName:      f.String("patient_name"),
			Diagnosis:        f.String("diagnosis"),
			AdmissionDate:    f.String("admission_date"),
			DischargeDate:    f.String("discharge_date"),
			DoctorName:       f.String("doctor_name"),
			TreatmentSummary: f.String("treatment_summary"),
		}
	case DocumentTypeIDCard:
		return &IDCardData{
			PolicyNumber:     f.String("policy_number"),
			PatientName:      f.String("patient_name"),
			InsuranceCompany: f.String("insurance_company"),
			CoverageAmount:   f.Amount("coverage_amount"),
			Validity:         f.String("validity"),
		}
	case DocumentTypePharmacyBill:
		return &PharmacyData{
			PharmacyName: f.String("pharmacy_name"),
			PatientName:  f.String("patient_name"),
			BillNumber:   f.String("bill_number"),
			BillDate:     f.String("bill_date"),
			TotalAmount:  f.Amount("total_amount"),
		}
	case DocumentTypeClaimForm:
		return &ClaimFormData{
			PatientName:  f.String("patient_name"),
			PolicyNumber: f.String("policy_number"),
			ClaimAmount:  f.Amount("claim_amount"),
			ClaimDate:    f.String("claim_date"),
			HospitalName: f.String("hospital_name"),
		}
	default:
		return &UnknownData{}
	}
}

// EmptyRecord returns the all-nil variant for t.
func EmptyRecord(t DocumentType) Record {
	return NewRecord(t, nil)
}

var fieldNames = map[DocumentType][]string{
	DocumentTypeBill:             {"bill_number", "patient_name", "hospital_name", "total_amount", "date"},
	DocumentTypeDischargeSummary: {"patient_name", "diagnosis", "admission_date", "discharge_date", "doctor_name", "treatment_summary"},
	DocumentTypeIDCard:           {"policy_number", "patient_name", "insurance_company", "coverage_amount", "validity"},
	DocumentTypePharmacyBill:     {"pharmacy_name", "patient_name", "bill_number", "bill_date", "total_amount"},
	DocumentTypeClaimForm:        {"patient_name", "policy_number", "claim_amount", "claim_date", "hospital_name"},
}

// FieldNames returns the field set of the variant for t in declaration order.
// Unknown has no fields.
func FieldNames(t DocumentType) []string {
	return fieldNames[t]
}

// String returns the trimmed string value for key, or nil when absent/blank.
func (f Fields) String(key string) *string {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case json.Number:
		s = val.String()
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		s = strconv.Itoa(val)
	default:
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Amount returns the decimal value for key, or nil when absent or unparsable.
func (f Fields) Amount(key string) *decimal.Decimal {
	v, ok := f[key]
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		return ParseAmount(val)
	case json.Number:
		return ParseAmount(val.String())
	case float64:
		d := decimal.NewFromFloat(val)
		return &d
	case int:
		d := decimal.NewFromInt(int64(val))
		return &d
	default:
		return nil
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
