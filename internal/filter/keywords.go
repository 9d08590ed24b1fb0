package filter

import (
	"strings"

	"go-joblog-automation/internal/models"

	"golang.org/x/text/cases"
)

// DefaultKeywords catch postings that mention relocation support or visa sponsorship.
var DefaultKeywords = []string{"relocat", "visa"}

// KeywordFilter keeps records whose description contains any keyword.
// Matching is a plain substring test on case-folded text; accents are significant.
type KeywordFilter struct {
	keywords []string
}

func NewKeywordFilter(keywords []string) *KeywordFilter {
	f := &KeywordFilter{}
	for _, k := range keywords {
		k = normalizeText(strings.TrimSpace(k))
		if k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	return f
}

// Keywords returns the normalized keyword list.
func (f *KeywordFilter) Keywords() []string {
	return append([]string(nil), f.keywords...)
}

// Match reports whether r qualifies. A missing description never does.
func (f *KeywordFilter) Match(r models.JobRecord) bool {
	if r.Description == nil {
		return false
	}
	text := normalizeText(*r.Description)
	for _, k := range f.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Apply returns the qualifying records, preserving order.
func (f *KeywordFilter) Apply(ds models.Dataset) models.Dataset {
	out := make(models.Dataset, 0, len(ds))
	for _, r := range ds {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

func normalizeText(str string) string {
	return cases.Fold().String(str)
}
