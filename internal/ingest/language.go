package ingest

import (
	"unicode"

	"golang.org/x/text/language"

	"github.com/sells-group/claims-cli/internal/model"
)

// minScriptRuns is how many separate runs of an Indic script the text needs
// before that script decides the language.
const minScriptRuns = 10

var scripts = []struct {
	table *unicode.RangeTable
	tag   language.Tag
}{
	{unicode.Telugu, language.Telugu},
	{unicode.Devanagari, language.Hindi},
	{unicode.Kannada, language.Kannada},
	{unicode.Tamil, language.Tamil},
}

// DetectLanguage guesses the language of text from its script. The Indic
// script with the most runs wins once it has more than minScriptRuns of them;
// otherwise Latin letters mean English. Text with no letters at all is
// unknown.
func DetectLanguage(text string) string {
	runs := make([]int, len(scripts))
	prev := -1
	latin := false
	for _, r := range text {
		cur := -1
		for i, s := range scripts {
			if unicode.Is(s.table, r) {
				cur = i
				break
			}
		}
		if cur >= 0 && cur != prev {
			runs[cur]++
		}
		prev = cur
		if !latin && unicode.Is(unicode.Latin, r) {
			latin = true
		}
	}

	best := -1
	for i, n := range runs {
		if n > 0 && (best < 0 || n > runs[best]) {
			best = i
		}
	}

	switch {
	case best >= 0 && runs[best] > minScriptRuns:
		return scripts[best].tag.String()
	case latin:
		return language.English.String()
	case best >= 0:
		return scripts[best].tag.String()
	default:
		return model.LanguageUnknown
	}
}
