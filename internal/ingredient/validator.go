package ingredient

import (
	"strings"
	"unicode/utf8"
)

const (
	minIngredientLength = 2
	maxIngredientLength = 50
)

// boilerplateTerms reject a candidate when found anywhere in its lower-cased,
// whitespace-free form. Containment is deliberately loose: "Peppers" is
// rejected because it contains "per".
var boilerplateTerms = []string{
	"ingredients", "contains", "maycontain", "allergens", "nutrition",
	"serving", "size", "calories", "fat", "carbs", "protein", "sodium",
	"total", "per", "amount", "daily", "value", "percent", "product",
	"net", "weight", "manufactured", "distributed", "keep", "refrigerated",
}

// IsValid reports whether a candidate looks like an ingredient name rather
// than label boilerplate or OCR debris.
func IsValid(candidate string) bool {
	compact := strings.Join(strings.Fields(candidate), "")

	n := utf8.RuneCountInString(compact)
	if n < minIngredientLength || n > maxIngredientLength {
		return false
	}
	if !hasASCIILetter(compact) {
		return false
	}

	lower := strings.ToLower(compact)
	for _, term := range boilerplateTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	return true
}

func hasASCIILetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}
