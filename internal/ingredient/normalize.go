package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeOCRText prepares raw recognizer output for parsing. It applies
// NFKC so ligatures and full-width forms become plain ASCII ("ﬂour" reads
// as "flour"), turns CR and CRLF line endings into LF, and drops control
// characters other than newline and tab.
func NormalizeOCRText(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = norm.NFKC.String(text)

	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}
