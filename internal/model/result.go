package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ProcessedDocument pairs an input document with its classification and the
// record extracted from it.
type ProcessedDocument struct {
	Document RawDocument
	Type     DocumentType
	Record   Record
}

// MarshalJSON renders the document summary without the raw text.
func (d ProcessedDocument) MarshalJSON() ([]byte, error) {
	rec := d.Record
	if rec == nil {
		rec = EmptyRecord(d.Type)
	}
	type extracted struct {
		Type DocumentType `json:"type"`
		Data Record       `json:"data"`
	}
	return json.Marshal(struct {
		FileName      string     `json:"file_name"`
		Language      string     `json:"language"`
		FileType      SourceType `json:"file_type"`
		CharCount     int        `json:"char_count"`
		ExtractedData extracted  `json:"extracted_data"`
	}{
		FileName:      d.Document.FileName,
		Language:      d.Document.Language,
		FileType:      d.Document.SourceType,
		CharCount:     d.Document.CharCount,
		ExtractedData: extracted{Type: d.Type, Data: rec},
	})
}

// ClaimResult is the complete outcome of processing one claim.
type ClaimResult struct {
	ClaimID    uuid.UUID           `json:"claim_id"`
	Documents  []ProcessedDocument `json:"documents"`
	Validation ValidationResult    `json:"validation"`
	Decision   ClaimDecision       `json:"claim_decision"`
}
