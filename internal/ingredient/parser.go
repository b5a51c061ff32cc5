package ingredient

import (
	"regexp"
	"strings"
)

var wordStartPattern = regexp.MustCompile(`\b\w`)

// Parse turns label text into the final ingredient list: segment, clean,
// drop empty and invalid candidates, then title-case what is left.
// Order follows the label and duplicates are kept. Parse never returns nil.
func Parse(text string) []string {
	candidates := Segment(text)

	ingredients := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		cleaned := Clean(candidate)
		if cleaned == "" || !IsValid(cleaned) {
			continue
		}
		ingredients = append(ingredients, TitleCase(cleaned))
	}

	return ingredients
}

// TitleCase collapses spacing, lower-cases s and upper-cases the first
// letter of every word: "WHEAT flour" becomes "Wheat Flour".
func TitleCase(s string) string {
	s = whitespaceRunPattern.ReplaceAllString(s, " ")
	s = strings.ToLower(strings.TrimSpace(s))
	return wordStartPattern.ReplaceAllStringFunc(s, strings.ToUpper)
}
