package parser

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/xuri/excelize/v2"
)

// resolveSheet finds the sheet for a wanted name: exact match first, then a
// match that ignores case, accents and surrounding spaces ("Devoluções Vendas
// Matriz " still resolves). Returns "" when nothing matches.
func resolveSheet(f *excelize.File, want string) string {
	sheets := f.GetSheetList()
	for _, s := range sheets {
		if s == want {
			return s
		}
	}

	target := strings.TrimSpace(want)
	for _, s := range sheets {
		candidate := strings.TrimSpace(s)
		// Matching in both directions means the folded names are identical.
		if fuzzy.MatchNormalizedFold(target, candidate) && fuzzy.MatchNormalizedFold(candidate, target) {
			return s
		}
	}
	return ""
}
