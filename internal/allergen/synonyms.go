package allergen

import (
	"sort"
	"strings"
)

// Entry is a canonical allergen with the label terms that indicate it.
type Entry struct {
	Name  string   `json:"name"`
	Terms []string `json:"terms"`
}

// synonymTable maps a canonical allergen to the terms that reveal it on a
// label. It is never mutated after init; callers only ever get copies.
var synonymTable = map[string][]string{
	"wheat":     {"wheat", "flour", "gluten", "enriched flour", "wheat flour"},
	"milk":      {"milk", "dairy", "cream", "lactose", "butter", "butterfat", "skimmed milk powder", "whey"},
	"eggs":      {"eggs", "egg", "albumin", "lecithin", "lysozyme", "ovalbumin"},
	"soy":       {"soy", "soya", "lecithin", "emulsifier", "tofu", "edamame"},
	"nuts":      {"nuts", "peanuts", "tree nuts", "hazelnut", "almond", "walnut", "pecan", "cashew", "pistachio", "macadamia"},
	"fish":      {"fish", "seafood", "salmon", "tuna", "cod", "anchovy", "sardine"},
	"shellfish": {"shellfish", "crab", "lobster", "shrimp", "prawn", "crayfish", "mussel", "oyster", "scallop"},
	"sesame":    {"sesame", "tahini", "sesame oil", "sesame seed"},
	"gluten":    {"gluten", "wheat", "barley", "rye", "oats", "malt", "spelt", "kamut"},
	"sulfites":  {"sulfites", "sulfur dioxide", "metabisulfite", "e220", "e228"},
}

// knownNames is the sorted list of canonical allergens.
var knownNames = func() []string {
	names := make([]string, 0, len(synonymTable))
	for name := range synonymTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}()

func normalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// lookup returns the table's own slice; it must not escape the package.
func lookup(allergy string) []string {
	key := normalizeLabel(allergy)
	if terms, ok := synonymTable[key]; ok {
		return terms
	}
	if key == "" {
		return nil
	}
	return []string{key}
}

// Terms returns the surface terms for an allergy label. Labels that are not
// in the table match on their own lower-cased text.
func Terms(allergy string) []string {
	terms := lookup(allergy)
	if terms == nil {
		return nil
	}
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// IsKnown reports whether the label names a canonical allergen.
func IsKnown(allergy string) bool {
	_, ok := synonymTable[normalizeLabel(allergy)]
	return ok
}

// Known returns the canonical allergen names in alphabetical order.
func Known() []string {
	out := make([]string, len(knownNames))
	copy(out, knownNames)
	return out
}

// All returns every table entry, ordered by name.
func All() []Entry {
	entries := make([]Entry, 0, len(knownNames))
	for _, name := range knownNames {
		entries = append(entries, Entry{Name: name, Terms: Terms(name)})
	}
	return entries
}

// Search returns entries whose name or any term contains query,
// case-insensitively. A limit of zero or less means no limit.
func Search(query string, limit int) []Entry {
	q := normalizeLabel(query)
	results := make([]Entry, 0)
	if q == "" {
		return results
	}

	for _, name := range knownNames {
		if !entryMatches(name, q) {
			continue
		}
		results = append(results, Entry{Name: name, Terms: Terms(name)})
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

func entryMatches(name, q string) bool {
	if strings.Contains(name, q) {
		return true
	}
	for _, term := range synonymTable[name] {
		if strings.Contains(term, q) {
			return true
		}
	}
	return false
}
