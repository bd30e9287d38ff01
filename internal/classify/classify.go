// Package classify assigns a document type to raw claim text using filename
// hints and multilingual keyword sets.
package classify

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/model"
)

type hint struct {
	docType  model.DocumentType
	keywords []string
}

// filenameHints are checked first, in order.
var filenameHints = []hint{
	{model.DocumentTypeDischargeSummary, []string{"discharge", "summary"}},
	{model.DocumentTypeIDCard, []string{"id", "card", "policy"}},
	{model.DocumentTypeBill, []string{"bill", "invoice"}},
}

// contentKeywords are checked after filename hints. Order encodes
// specificity: generic bill vocabulary must not shadow the narrower types.
var contentKeywords = []hint{
	{model.DocumentTypeDischargeSummary, []string{
		"discharge summary", "discharge date", "admission date",
		"patient was admitted", "diagnosis:", "treatment given",
		"डिस्चार्ज सारांश", "भर्ती की तारीख", "निदान",
		"డిశ్చార్జ్ సారాంశం", "నిర్ధారణ",
	}},
	{model.DocumentTypeIDCard, []string{
		"policy number", "policyholder", "member id", "insurance id",
		"coverage amount", "validity period", "sum insured",
		"पॉलिसी नंबर", "पॉलिसीधारक",
		"పాలసీ నంబర్", "పాలసీదారు",
	}},
	{model.DocumentTypeBill, []string{
		"hospital bill", "medical bill", "invoice", "receipt",
		"total amount", "bill number",
		"अस्पताल बिल", "चिकित्सा बिल", "बिल संख्या",
		"ఆసుపత్రి బిల్లు", "బిల్లు నంబర్",
	}},
	{model.DocumentTypePharmacyBill, []string{
		"pharmacy", "medicines", "prescription", "chemist",
		"दवा", "फार्मेसी",
		"మందు", "ఫార్మసీ",
	}},
}

// Classify returns the document type for text and fileName. It is pure:
// identical input always yields the same type. Text that matches nothing is
// unknown and is reported at warn level.
func Classify(text, fileName string) model.DocumentType {
	name := strings.ToLower(fileName)
	for _, h := range filenameHints {
		if containsAny(name, h.keywords) {
			return h.docType
		}
	}

	lower := strings.ToLower(text)
	for _, h := range contentKeywords {
		if containsAny(lower, h.keywords) {
			return h.docType
		}
	}

	zap.L().Warn("classify: no rule matched",
		zap.String("file", fileName),
		zap.String("excerpt", excerpt(text, 100)),
	)
	return model.DocumentTypeUnknown
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// excerpt returns at most n runes of s.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
