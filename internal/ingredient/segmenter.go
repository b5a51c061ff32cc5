package ingredient

import (
	"regexp"
	"strings"
)

var (
	// Header that introduces the ingredient list, e.g. "Ingredients:" or "INGREDIENTS :"
	sectionHeaderPattern = regexp.MustCompile(`(?i)ingredients\s*:`)

	// Boilerplate that usually follows the ingredient list on a label
	boilerplatePattern = regexp.MustCompile(`(?i)allergen|contain|may contain|nutrition|storage|allergy advice`)

	// Capitalized word optionally followed by lower-case words: "Sea salt", "Sugar"
	capitalizedRunPattern = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[a-z]+)*`)
)

// splitStrategy returns candidates for a section, or ok=false when the
// section does not have the delimiter the strategy splits on.
type splitStrategy func(section string) (candidates []string, ok bool)

// sectionStrategies are tried in order once the ingredient section is known.
var sectionStrategies = []splitStrategy{
	splitOnCommas,
	splitOnPeriods,
	splitOnCapitalizedRuns,
}

// Segment splits label text into ingredient candidates.
//
// Text that already has one ingredient per line is split on newlines and
// nothing else. Otherwise the ingredient section is located first and then
// split on commas (outside parentheses), periods, or capitalized word runs,
// in that order of preference. If no strategy applies the whole section is
// a single candidate. Blank candidates are never returned.
func Segment(text string) []string {
	if lines, ok := splitOnLines(text); ok {
		return lines
	}

	section := LocateSection(text)
	for _, split := range sectionStrategies {
		if candidates, ok := split(section); ok {
			return candidates
		}
	}

	return nonBlank([]string{section})
}

// LocateSection returns the trimmed part of single-line label text that
// holds the ingredient list. It tries, in order: "ingredients:" up to the
// next boilerplate keyword, "ingredients:" to the end of the text, and the
// text up to the first boilerplate keyword. Keywords inside parentheses do
// not end a section. When nothing matches the whole text is returned.
func LocateSection(text string) string {
	headers := sectionHeaderPattern.FindAllStringIndex(text, -1)

	for _, loc := range headers {
		start := loc[1]
		if end, ok := findBoundary(text, start); ok {
			return strings.TrimSpace(text[start:end])
		}
	}

	if len(headers) > 0 {
		start := headers[0][1]
		if start < len(text) {
			return strings.TrimSpace(text[start:])
		}
	}

	if end, ok := findBoundary(text, 0); ok {
		return strings.TrimSpace(text[:end])
	}

	return text
}

// findBoundary finds the first boilerplate keyword that starts at least one
// byte after start and sits outside any parentheses opened after start. A
// stray ")" leaves the depth negative, which still counts as outside.
func findBoundary(text string, start int) (int, bool) {
	pos := start + 1
	for pos < len(text) {
		loc := boilerplatePattern.FindStringIndex(text[pos:])
		if loc == nil {
			return 0, false
		}
		kw := pos + loc[0]
		if parenDepth(text[start:kw]) <= 0 {
			return kw, true
		}
		pos = kw + 1
	}
	return 0, false
}

func parenDepth(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return depth
}

func splitOnLines(text string) ([]string, bool) {
	if !strings.Contains(text, "\n") {
		return nil, false
	}
	return nonBlank(strings.Split(text, "\n")), true
}

// splitOnCommas splits on commas at parenthesis depth zero, so
// "Sugar, Cocoa (milk, soy)" stays two candidates.
func splitOnCommas(section string) ([]string, bool) {
	if !strings.Contains(section, ",") {
		return nil, false
	}

	var parts []string
	var current strings.Builder
	depth := 0

	for _, r := range section {
		switch {
		case r == '(':
			depth++
			current.WriteRune(r)
		case r == ')':
			depth--
			current.WriteRune(r)
		case r == ',' && depth == 0:
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	parts = append(parts, current.String())

	return nonBlank(parts), true
}

func splitOnPeriods(section string) ([]string, bool) {
	if !strings.Contains(section, ".") {
		return nil, false
	}
	return nonBlank(strings.Split(section, ".")), true
}

func splitOnCapitalizedRuns(section string) ([]string, bool) {
	matches := capitalizedRunPattern.FindAllString(section, -1)
	if len(matches) < 2 {
		return nil, false
	}
	return nonBlank(matches), true
}

// nonBlank trims every part and drops the empty ones.
func nonBlank(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
