package ingredient

import (
	"reflect"
	"testing"
)

func TestSegment(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "commas inside parentheses do not split",
			text: "Sugar, Cocoa (contains: milk, soy), Salt",
			want: []string{"Sugar", "Cocoa (contains: milk, soy)", "Salt"},
		},
		{
			name: "one ingredient per line",
			text: "Sugar\n\n  Salt \nWater",
			want: []string{"Sugar", "Salt", "Water"},
		},
		{
			name: "lines are not re-split on commas",
			text: "Sugar, Salt\nWater",
			want: []string{"Sugar, Salt", "Water"},
		},
		{
			name: "labeled section up to allergy advice",
			text: "Chocolate bar. Ingredients: Sugar, Cocoa Butter, Milk Powder. Allergy advice: see bold. Nutrition per 100g",
			want: []string{"Sugar", "Cocoa Butter", "Milk Powder."},
		},
		{
			name: "labeled section to end of text",
			text: "INGREDIENTS: oats, honey",
			want: []string{"oats", "honey"},
		},
		{
			name: "text up to first boilerplate keyword",
			text: "Sugar, salt. Contains milk",
			want: []string{"Sugar", "salt."},
		},
		{
			name: "period split when no commas",
			text: "Sugar. Salt. Water",
			want: []string{"Sugar", "Salt", "Water"},
		},
		{
			name: "capitalized word runs",
			text: "Sugar Salt Cocoa butter",
			want: []string{"Sugar", "Salt", "Cocoa butter"},
		},
		{
			name: "single capitalized run falls back to whole section",
			text: "Contains milk",
			want: []string{"Contains milk"},
		},
		{
			name: "no delimiters at all",
			text: "sugar salt",
			want: []string{"sugar salt"},
		},
		{
			name: "empty commas are dropped",
			text: "Sugar,, ,Salt,",
			want: []string{"Sugar", "Salt"},
		},
		{
			name: "unbalanced closing parenthesis",
			text: "Sugar), Salt, Water",
			want: []string{"Sugar), Salt, Water"},
		},
		{
			name: "empty text",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: "   ",
			want: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Segment(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Segment(%q) = %#v, want %#v", tc.text, got, tc.want)
			}
		})
	}
}

func TestLocateSection(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want string
	}{
		{
			name: "header and allergen boundary",
			text: "Ingredients: flour, water. Allergens: wheat",
			want: "flour, water.",
		},
		{
			name: "space before colon",
			text: "ingredients : rice",
			want: "rice",
		},
		{
			name: "keyword inside parentheses is skipped",
			text: "Sugar, salt (may contain traces), pepper. Storage: cool",
			want: "Sugar, salt (may contain traces), pepper.",
		},
		{
			name: "stray closing parenthesis before boundary",
			text: "Ingredients: Sugar), Salt. Contains milk",
			want: "Sugar), Salt.",
		},
		{
			name: "header with nothing after it",
			text: "Ingredients:",
			want: "Ingredients:",
		},
		{
			name: "keyword at the very start is not a boundary",
			text: "Contains milk",
			want: "Contains milk",
		},
		{
			name: "no header no keywords",
			text: "no keywords here",
			want: "no keywords here",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LocateSection(tc.text)
			if got != tc.want {
				t.Errorf("LocateSection(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestSplitStrategies_ReportNoConfidentSplit(t *testing.T) {
	if _, ok := splitOnCommas("Sugar Salt"); ok {
		t.Error("splitOnCommas should not apply without commas")
	}
	if _, ok := splitOnPeriods("Sugar Salt"); ok {
		t.Error("splitOnPeriods should not apply without periods")
	}
	if _, ok := splitOnCapitalizedRuns("Sugar"); ok {
		t.Error("splitOnCapitalizedRuns should need at least two runs")
	}
	if _, ok := splitOnLines("Sugar, Salt"); ok {
		t.Error("splitOnLines should not apply without newlines")
	}
}
