// Package model defines the claim documents, extracted records, validation
// results and decisions that flow through the adjudication pipeline.
package model

import "unicode/utf8"

// SourceType records how a document reached the system.
type SourceType string

const (
	SourceTypePDF   SourceType = "pdf"
	SourceTypeImage SourceType = "image"
)

// LanguageUnknown is reported when no language could be detected.
const LanguageUnknown = "unknown"

// DocumentType is the classification tag assigned to a raw document.
type DocumentType string

const (
	DocumentTypeBill             DocumentType = "bill"
	DocumentTypeDischargeSummary DocumentType = "discharge_summary"
	DocumentTypeIDCard           DocumentType = "id_card"
	DocumentTypePharmacyBill     DocumentType = "pharmacy_bill"
	DocumentTypeClaimForm        DocumentType = "claim_form"
	DocumentTypeUnknown          DocumentType = "unknown"
)

// DocumentTypes lists every known type in a stable order, unknown excluded.
var DocumentTypes = []DocumentType{
	DocumentTypeBill,
	DocumentTypeDischargeSummary,
	DocumentTypeIDCard,
	DocumentTypePharmacyBill,
	DocumentTypeClaimForm,
}

// ParseDocumentType maps a free-form tag (e.g. from a completion backend) to
// a DocumentType. Anything unrecognised, including "other", is unknown.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(s) {
	case DocumentTypeBill, DocumentTypeDischargeSummary, DocumentTypeIDCard,
		DocumentTypePharmacyBill, DocumentTypeClaimForm:
		return DocumentType(s)
	default:
		return DocumentTypeUnknown
	}
}

// Required reports whether the type must be present for a claim to pass
// cross-document validation.
func (t DocumentType) Required() bool {
	switch t {
	case DocumentTypeBill, DocumentTypeDischargeSummary, DocumentTypeIDCard:
		return true
	default:
		return false
	}
}

// Label is the human-readable name used in issue messages.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypeBill:
		return "Bill"
	case DocumentTypeDischargeSummary:
		return "Discharge Summary"
	case DocumentTypeIDCard:
		return "ID Card"
	case DocumentTypePharmacyBill:
		return "Pharmacy Bill"
	case DocumentTypeClaimForm:
		return "Claim Form"
	default:
		return "Unknown"
	}
}

// RawDocument is the text extracted from one uploaded file. It is produced
// once by ingestion and never modified by the pipeline.
type RawDocument struct {
	Text       string     `json:"text"`
	FileName   string     `json:"file_name"`
	Language   string     `json:"language"`
	SourceType SourceType `json:"source_type"`
	CharCount  int        `json:"char_count"`
}

// NewRawDocument builds a RawDocument, deriving CharCount from text.
func NewRawDocument(fileName, text, language string, source SourceType) RawDocument {
	if language == "" {
		language = LanguageUnknown
	}
	return RawDocument{
		Text:       text,
		FileName:   fileName,
		Language:   language,
		SourceType: source,
		CharCount:  utf8.RuneCountInString(text),
	}
}
