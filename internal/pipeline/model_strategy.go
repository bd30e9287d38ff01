package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/classify"
	"github.com/sells-group/claims-cli/internal/completion"
	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/extract"
	"github.com/sells-group/claims-cli/internal/model"
)

// Excerpt bounds, in runes, for text sent to the completion backend.
const (
	classifyExcerpt = 2000
	extractExcerpt  = 3000
)

const systemPrompt = `You read medical insurance claim documents (hospital bills, discharge summaries, insurance ID cards, pharmacy bills, claim forms). Documents may be in English, Hindi or Telugu. Respond with a single JSON object and nothing else.`

// typeDescriptions is the classification menu, in prompt order.
var typeDescriptions = []struct {
	Type model.DocumentType
	Desc string
}{
	{model.DocumentTypeBill, "hospital bill or invoice"},
	{model.DocumentTypeDischargeSummary, "discharge summary or report"},
	{model.DocumentTypeIDCard, "insurance ID card"},
	{model.DocumentTypePharmacyBill, "pharmacy receipt or bill"},
	{model.DocumentTypeClaimForm, "insurance claim form"},
}

// fieldHints describes the expected value of each extracted field.
var fieldHints = map[string]string{
	"bill_number":       "string or null",
	"patient_name":      "string or null",
	"hospital_name":     "string or null",
	"pharmacy_name":     "string or null",
	"insurance_company": "string or null",
	"policy_number":     "string or null",
	"diagnosis":         "string or null",
	"doctor_name":       "string or null",
	"treatment_summary": "string or null",
	"date":              "date as written, or null",
	"bill_date":         "date as written, or null",
	"claim_date":        "date as written, or null",
	"admission_date":    "date as written, or null",
	"discharge_date":    "date as written, or null",
	"validity":          "validity date or period as written, or null",
	"total_amount":      "number or null",
	"coverage_amount":   "number or null",
	"claim_amount":      "number or null",
}

// ModelStrategy delegates classification and extraction to a completion
// backend. Replies are parsed leniently: a reply that holds no usable object
// yields unknown or an all-nil record rather than an error. Backend failures
// that survive the completer's retries are returned.
type ModelStrategy struct {
	completer completion.Completer
}

// NewModelStrategy returns a ModelStrategy backed by c.
func NewModelStrategy(c completion.Completer) *ModelStrategy {
	return &ModelStrategy{completer: c}
}

func (s *ModelStrategy) Name() string { return config.StrategyModel }

// Classify asks the backend for the document type. Short text never reaches
// the backend; only the filename can classify it.
func (s *ModelStrategy) Classify(ctx context.Context, doc model.RawDocument) (model.DocumentType, error) {
	if extract.TooShort(doc.Text) {
		return classify.Classify(doc.Text, doc.FileName), nil
	}

	reply, err := s.completer.Complete(ctx, completion.Request{
		Operation: "classify",
		System:    systemPrompt,
		Prompt:    classifyPrompt(doc),
	})
	if err != nil {
		return model.DocumentTypeUnknown, eris.Wrapf(err, "pipeline: classify %s", doc.FileName)
	}

	obj := ParseObject(reply)
	tag, _ := obj["document_type"].(string)
	t := model.ParseDocumentType(strings.ToLower(strings.TrimSpace(tag)))
	if t == model.DocumentTypeUnknown {
		zap.L().Warn("pipeline: backend could not classify document",
			zap.String("file", doc.FileName),
			zap.String("reply_type", tag),
		)
	}
	return t, nil
}

// Extract asks the backend for the fields of t. Unknown documents and short
// text never reach the backend.
func (s *ModelStrategy) Extract(ctx context.Context, text string, t model.DocumentType) (model.Record, error) {
	if t == model.DocumentTypeUnknown || extract.TooShort(text) {
		return model.EmptyRecord(t), nil
	}

	reply, err := s.completer.Complete(ctx, completion.Request{
		Operation: "extract:" + string(t),
		System:    systemPrompt,
		Prompt:    extractPrompt(text, t),
	})
	if err != nil {
		return model.EmptyRecord(t), eris.Wrapf(err, "pipeline: extract %s", t)
	}

	return model.NewRecord(t, model.Fields(ParseObject(reply))), nil
}

func classifyPrompt(doc model.RawDocument) string {
	var b strings.Builder
	b.WriteString("Classify this document into ONE of these types:\n")
	for _, td := range typeDescriptions {
		fmt.Fprintf(&b, "- %s (%s)\n", td.Type, td.Desc)
	}
	b.WriteString("- other (anything else)\n\n")
	fmt.Fprintf(&b, "Document filename: %s\n", doc.FileName)
	fmt.Fprintf(&b, "Document text (first %d characters):\n%s\n\n", classifyExcerpt, truncateRunes(doc.Text, classifyExcerpt))
	b.WriteString(`Respond ONLY with JSON in this exact format: {"document_type": "type_here", "confidence": 0.95}`)
	return b.String()
}

func extractPrompt(text string, t model.DocumentType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract structured information from this %s.\n", strings.ToLower(t.Label()))
	b.WriteString("Return ONLY a JSON object with these fields (use null for missing):\n{\n")
	names := model.FieldNames(t)
	for i, name := range names {
		sep := ","
		if i == len(names)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  %q: %s%s\n", name, fieldHints[name], sep)
	}
	b.WriteString("}\n\n")
	fmt.Fprintf(&b, "Document text:\n%s\n\n", truncateRunes(text, extractExcerpt))
	b.WriteString("Respond with ONLY the JSON object, no other text.")
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
