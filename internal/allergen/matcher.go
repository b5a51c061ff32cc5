package allergen

import "strings"

// WarningPrefix starts every allergen warning.
const WarningPrefix = "Contains "

// Match checks ingredients against the user's allergy labels and returns one
// "Contains <label>" warning per allergy found, in allergy order.
//
// An allergy is present when any ingredient contains any of its terms as a
// substring, so "Soy Lecithin" flags both soy and eggs. Repeated labels
// (compared case-insensitively) and blank labels produce no extra warnings.
// The label goes into the message exactly as the caller passed it.
func Match(ingredients, allergies []string) []string {
	warnings := make([]string, 0)
	if len(ingredients) == 0 || len(allergies) == 0 {
		return warnings
	}

	lowered := make([]string, len(ingredients))
	for i, ing := range ingredients {
		lowered[i] = strings.ToLower(ing)
	}

	seen := make(map[string]bool, len(allergies))
	for _, allergy := range allergies {
		key := normalizeLabel(allergy)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		if containsAnyTerm(lowered, lookup(key)) {
			warnings = append(warnings, WarningPrefix+allergy)
		}
	}

	return warnings
}

func containsAnyTerm(ingredients, terms []string) bool {
	for _, ing := range ingredients {
		for _, term := range terms {
			if strings.Contains(ing, term) {
				return true
			}
		}
	}
	return false
}
