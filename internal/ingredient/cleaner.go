package ingredient

import (
	"regexp"
	"strings"
)

// Compiled patterns for candidate cleaning, applied in declaration order.
var (
	// Matches percentage tokens like "5%" or "10.5%"
	percentPattern = regexp.MustCompile(`\d+(?:\.\d+)?%`)

	// Anything outside word chars, whitespace, hyphen, parentheses, period and comma
	disallowedCharPattern = regexp.MustCompile(`[^\w\s\-\(\)\.,]`)

	whitespaceRunPattern = regexp.MustCompile(`\s+`)

	// Leading or trailing runs of non-word characters
	edgeNoisePattern = regexp.MustCompile(`^[\W\s]+|[\W\s]+$`)

	hyphenSpacingPattern = regexp.MustCompile(`\s*-\s*`)
	parenSpacingPattern  = regexp.MustCompile(`\s*\(\s*`)
	commaSpacingPattern  = regexp.MustCompile(`\s*,\s*`)
)

// Clean strips OCR garbage from a single ingredient candidate.
// It removes percentages and disallowed characters, collapses whitespace,
// trims punctuation at both ends and normalizes spacing around hyphens,
// opening parentheses and commas. The result never contains alphanumerics
// that were not in the input, and Clean(Clean(s)) == Clean(s).
func Clean(candidate string) string {
	if candidate == "" {
		return ""
	}

	cleaned := percentPattern.ReplaceAllString(candidate, "")
	cleaned = disallowedCharPattern.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRunPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = edgeNoisePattern.ReplaceAllString(cleaned, "")

	// Comma spacing must run last so ", (" survives a second pass unchanged.
	cleaned = hyphenSpacingPattern.ReplaceAllString(cleaned, "-")
	cleaned = parenSpacingPattern.ReplaceAllString(cleaned, "(")
	cleaned = commaSpacingPattern.ReplaceAllString(cleaned, ", ")

	return strings.TrimSpace(cleaned)
}
