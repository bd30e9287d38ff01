// Package patterns holds the ordered, multilingual label rules used to pull
// field values out of claim document text.
package patterns

import (
	"regexp"
	"strings"

	"github.com/sells-group/claims-cli/internal/model"
)

// Languages a rule can be tied to.
const (
	English = "en"
	Hindi   = "hi"
	Telugu  = "te"
)

// Rule is one label pattern. The first capture group holds the value.
type Rule struct {
	Language string
	Pattern  *regexp.Regexp
}

// Field is the ordered rule list for one record field.
type Field struct {
	Name  string
	Rules []Rule
	// Letterhead marks fields that fall back to the document's first
	// digit-free line when no rule matches.
	Letterhead bool
}

// Match is the value captured for a field and the rule language that won.
type Match struct {
	Value    string
	Language string
}

// Find returns the capture of the first rule that matches text with a value
// that is more than blanks and separators. Later rules are not tried once one
// matches.
func (f Field) Find(text string) (Match, bool) {
	for _, r := range f.Rules {
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		v := strings.TrimSpace(m[1])
		if strings.Trim(v, separators) == "" {
			continue
		}
		return Match{Value: v, Language: r.Language}, true
	}
	return Match{}, false
}

// Library maps each document type to its ordered field rules.
type Library struct {
	fields map[model.DocumentType][]Field
}

// Fields returns the field rules for t, in record field order. Unknown and
// unregistered types have none.
func (l *Library) Fields(t model.DocumentType) []Field {
	return l.fields[t]
}

// sep is the run of separators allowed between a label and its value. It never
// crosses a line break.
const sep = `[:.#\-\t ]*`

// value captures free text after a label. The first character may not be a
// separator or blank, so a label with nothing after it on its line never
// captures its own punctuation.
const value = `([^:.#\-\s][^\n]*)`

// separators are the characters sep consumes.
const separators = ":.#-\t "

// label turns a space-separated label fragment into a pattern prefix where
// each space tolerates any run of blanks.
func label(fragment string) string {
	return `(?i)(?:` + strings.ReplaceAll(fragment, " ", `[ \t]*`) + `)` + sep
}

// line captures everything after the label up to the end of the line.
func line(lang, fragment string) Rule {
	return Rule{Language: lang, Pattern: regexp.MustCompile(label(fragment) + value)}
}

// lineAnchored is line with the label required at the start of a line.
func lineAnchored(lang, fragment string) Rule {
	return Rule{Language: lang, Pattern: regexp.MustCompile(`(?m)^[ \t]*` + label(fragment) + value)}
}

// ident captures an alphanumeric identifier such as a bill or policy number.
func ident(lang, fragment string) Rule {
	return Rule{Language: lang, Pattern: regexp.MustCompile(label(fragment) + `([A-Za-z0-9][A-Za-z0-9/\-]*)`)}
}

// amount captures a rupee figure, with an optional currency marker, keeping
// thousands separators for the parser to strip.
func amount(lang, fragment string) Rule {
	return Rule{Language: lang, Pattern: regexp.MustCompile(label(fragment) + `(?:₹|rs\.?|inr)?[ \t]*(\d[\d,]*(?:\.\d+)?)`)}
}

// date captures a numeric dd/mm/yyyy style date.
func date(lang, fragment string) Rule {
	return Rule{Language: lang, Pattern: regexp.MustCompile(label(fragment) + `(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4})`)}
}

var (
	patientName = Field{Name: "patient_name", Rules: []Rule{
		line(English, "patient name|name of (?:the )?patient"),
		line(Hindi, "मरीज का नाम|रोगी का नाम"),
		line(Telugu, "రోగి పేరు"),
	}}

	billNumber = Field{Name: "bill_number", Rules: []Rule{
		ident(English, "(?:bill|invoice|receipt) (?:number|no)"),
		ident(Hindi, "बिल संख्या|बिल नंबर"),
		ident(Telugu, "బిల్లు నంబర్"),
	}}

	totalAmount = Field{Name: "total_amount", Rules: []Rule{
		amount(English, `\b(?:total amount|grand total|net amount|amount payable)`),
		amount(English, `\btotal\b`),
		amount(Hindi, "कुल राशि|कुल रकम"),
		amount(Telugu, "మొత్తం మొత్తం|మొత్తం"),
	}}

	billDate = []Rule{
		date(English, "(?:bill |invoice )?date"),
		date(Hindi, "तारीख|दिनांक"),
		date(Telugu, "తేదీ"),
	}

	hospitalName = Field{Name: "hospital_name", Letterhead: true, Rules: []Rule{
		line(English, "hospital name|name of (?:the )?hospital"),
		line(Hindi, "अस्पताल का नाम"),
		line(Telugu, "ఆసుపత్రి పేరు"),
	}}

	policyNumber = Field{Name: "policy_number", Rules: []Rule{
		ident(English, "policy (?:number|no)"),
		ident(Hindi, "पॉलिसी (?:नंबर|संख्या)"),
		ident(Telugu, "పాలసీ నంబర్"),
	}}
)

// New returns the default library covering every known document type.
func New() *Library {
	return &Library{fields: map[model.DocumentType][]Field{
		model.DocumentTypeBill: {
			billNumber,
			patientName,
			hospitalName,
			totalAmount,
			{Name: "date", Rules: billDate},
		},
		model.DocumentTypeDischargeSummary: {
			patientName,
			{Name: "diagnosis", Rules: []Rule{
				line(English, "(?:final |provisional )?diagnosis"),
				line(Hindi, "निदान"),
				line(Telugu, "నిర్ధారణ"),
			}},
			{Name: "admission_date", Rules: []Rule{
				date(English, "admission date|date of admission|admitted on"),
				date(Hindi, "भर्ती (?:की )?तारीख"),
				date(Telugu, "చేరిక తేదీ"),
			}},
			{Name: "discharge_date", Rules: []Rule{
				date(English, "discharge date|date of discharge|discharged on"),
				date(Hindi, "छुट्टी की तारीख|डिस्चार्ज (?:की )?तारीख"),
				date(Telugu, "డిశ్చార్జ్ తేదీ"),
			}},
			{Name: "doctor_name", Rules: []Rule{
				line(English, "(?:attending |treating |consultant )?(?:doctor|physician)(?: name)?|consultant"),
				line(Hindi, "डॉक्टर (?:का नाम)?|चिकित्सक"),
				line(Telugu, "డాక్టర్|వైద్యుడు"),
			}},
			{Name: "treatment_summary", Rules: []Rule{
				line(English, "treatment (?:given|summary)|course in hospital|treatment"),
				line(Hindi, "उपचार"),
				line(Telugu, "చికిత్స"),
			}},
		},
		model.DocumentTypeIDCard: {
			policyNumber,
			{Name: "patient_name", Rules: []Rule{
				line(English, "(?:patient|member|insured|policy holder|card holder|beneficiary) name"),
				line(English, "policy holder|insured person"),
				lineAnchored(English, "name"),
				line(Hindi, "पॉलिसीधारक (?:का )?नाम|बीमित (?:का )?नाम|नाम"),
				line(Telugu, "పాలసీదారు పేరు|పేరు"),
			}},
			{Name: "insurance_company", Rules: []Rule{
				line(English, "insurance company|insurer|insurance provider"),
				line(Hindi, "बीमा कंपनी"),
				line(Telugu, "బీమా కంపెనీ"),
			}},
			{Name: "coverage_amount", Rules: []Rule{
				amount(English, "coverage amount|sum insured|sum assured"),
				amount(English, "coverage"),
				amount(Hindi, "कवरेज राशि|बीमा राशि"),
				amount(Telugu, "కవరేజ్ మొత్తం|బీమా మొత్తం"),
			}},
			{Name: "validity", Rules: []Rule{
				line(English, "validity(?: period)?|valid (?:till|upto|until|from)"),
				line(Hindi, "वैधता"),
				line(Telugu, "చెల్లుబాటు"),
			}},
		},
		model.DocumentTypePharmacyBill: {
			{Name: "pharmacy_name", Letterhead: true, Rules: []Rule{
				line(English, "pharmacy name|chemist name|store name|medical store"),
				line(Hindi, "फार्मेसी (?:का )?नाम|दवा दुकान"),
				line(Telugu, "ఫార్మసీ పేరు|మందుల దుకాణం"),
			}},
			patientName,
			billNumber,
			{Name: "bill_date", Rules: billDate},
			totalAmount,
		},
		model.DocumentTypeClaimForm: {
			patientName,
			policyNumber,
			{Name: "claim_amount", Rules: []Rule{
				amount(English, "(?:total )?claim(?:ed)? amount|amount claimed"),
				amount(Hindi, "दावा राशि"),
				amount(Telugu, "క్లెయిమ్ మొత్తం"),
			}},
			{Name: "claim_date", Rules: []Rule{
				date(English, "claim date|date of claim"),
				date(Hindi, "दावा (?:की )?तारीख"),
				date(Telugu, "క్లెయిమ్ తేదీ"),
			}},
			{Name: "hospital_name", Rules: hospitalName.Rules},
		},
	}}
}
