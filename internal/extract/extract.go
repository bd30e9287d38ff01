// Package extract turns classified document text into typed records using the
// pattern library.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/model"
	"github.com/sells-group/claims-cli/internal/patterns"
)

// MinTextLength is the trimmed rune count below which no extraction is tried.
const MinTextLength = 10

// letterheadLines is how many leading lines the letterhead fallback scans.
const letterheadLines = 5

// Extractor applies a pattern library to document text.
type Extractor struct {
	lib *patterns.Library
}

// New returns an Extractor over lib. A nil lib uses the default library.
func New(lib *patterns.Library) *Extractor {
	if lib == nil {
		lib = patterns.New()
	}
	return &Extractor{lib: lib}
}

// TooShort reports whether text falls under the short-input policy.
func TooShort(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) < MinTextLength
}

// Extract returns the record variant for t populated from text. Fields that no
// rule matches are nil. Short input yields the all-nil variant.
func (e *Extractor) Extract(text string, t model.DocumentType) model.Record {
	if TooShort(text) {
		zap.L().Debug("extract: text too short",
			zap.String("doc_type", string(t)),
			zap.Int("chars", utf8.RuneCountInString(text)),
		)
		return model.EmptyRecord(t)
	}

	fields := model.Fields{}
	for _, f := range e.lib.Fields(t) {
		if m, ok := f.Find(text); ok {
			fields[f.Name] = m.Value
			zap.L().Debug("extract: field matched",
				zap.String("doc_type", string(t)),
				zap.String("field", f.Name),
				zap.String("lang", m.Language),
			)
			continue
		}
		if f.Letterhead {
			if v, ok := letterhead(text); ok {
				fields[f.Name] = v
			}
		}
	}
	return model.NewRecord(t, fields)
}

// letterhead returns the first non-empty line among the leading lines that
// contains no digit. Document headers usually carry the issuer's name there.
func letterhead(text string) (string, bool) {
	lines := strings.SplitN(text, "\n", letterheadLines+1)
	if len(lines) > letterheadLines {
		lines = lines[:letterheadLines]
	}
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.IndexFunc(l, unicode.IsDigit) >= 0 {
			continue
		}
		return l, true
	}
	return "", false
}
