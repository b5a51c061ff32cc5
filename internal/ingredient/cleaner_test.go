package ingredient

import (
	"strings"
	"testing"
	"unicode"
)

func TestClean(t *testing.T) {
	testCases := []struct {
		name      string
		candidate string
		want      string
	}{
		{
			name:      "strips decimal percentage",
			candidate: "Sugar 10.5%",
			want:      "Sugar",
		},
		{
			name:      "strips integer percentage inside parentheses",
			candidate: "Cocoa Butter (12%)",
			want:      "Cocoa Butter", // "()" left behind is trailing noise
		},
		{
			name:      "collapses whitespace",
			candidate: "  Wheat   Flour  ",
			want:      "Wheat Flour",
		},
		{
			name:      "drops trailing period",
			candidate: "Salt.",
			want:      "Salt",
		},
		{
			name:      "removes symbols",
			candidate: "*Palm Oil*",
			want:      "Palm Oil",
		},
		{
			name:      "removes trademark sign",
			candidate: "Water™",
			want:      "Water",
		},
		{
			name:      "tightens hyphen spacing",
			candidate: "Semi - Skimmed Milk",
			want:      "Semi-Skimmed Milk",
		},
		{
			name:      "tightens parenthesis spacing",
			candidate: "Emulsifier ( Soy Lecithin )",
			want:      "Emulsifier(Soy Lecithin",
		},
		{
			name:      "normalizes comma spacing",
			candidate: "Milk ,Sugar",
			want:      "Milk, Sugar",
		},
		{
			name:      "empty input",
			candidate: "",
			want:      "",
		},
		{
			name:      "only garbage",
			candidate: "%% ## !!",
			want:      "",
		},
		{
			name:      "only percentage",
			candidate: "45%",
			want:      "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Clean(tc.candidate)
			if got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.candidate, got, tc.want)
			}
		})
	}
}

var cleanCorpus = []string{
	"",
	"Sugar 10.5%",
	"Emulsifier ( Soy Lecithin )",
	"a , ( b",
	", (a) ,b",
	"a ,- b",
	"a- , b",
	"a (, b",
	"- x -",
	"...Milk Powder...",
	"Ingredients: WHEAT flour (contains gluten), salt",
	"Vitamin B1 , B2 , B6 - 0.5 %",
	"ﬂour ™ ®",
	"(((",
	"\t\n  \r",
	"Cocoa Mass 45%, Sugar 30.2%, Hazelnuts (10%)",
}

func TestClean_Idempotent(t *testing.T) {
	for _, s := range cleanCorpus {
		once := Clean(s)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: once=%q twice=%q", s, once, twice)
		}
	}
}

func TestClean_NeverAddsAlphanumerics(t *testing.T) {
	for _, s := range cleanCorpus {
		got := Clean(s)
		for _, r := range got {
			if (unicode.IsLetter(r) || unicode.IsDigit(r)) && !strings.ContainsRune(s, r) {
				t.Errorf("Clean(%q) = %q introduced %q", s, got, r)
			}
		}
		if strings.Contains(got, "%") {
			t.Errorf("Clean(%q) = %q still has a percent sign", s, got)
		}
	}
}
