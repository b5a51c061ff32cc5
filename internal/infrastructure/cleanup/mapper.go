package cleanup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/allerlens/backend/internal/domain"
)

// Matches an opening fence with an optional language tag, e.g. "```text".
var openingFencePattern = regexp.MustCompile("^```[a-zA-Z]*\\s*")

// ExtractCleanedText turns a model reply into pipeline input: markdown code
// fences and surrounding whitespace are stripped. An empty reply is an error.
func ExtractCleanedText(content string) (string, error) {
	text := strings.TrimSpace(content)
	if strings.HasPrefix(text, "```") {
		text = openingFencePattern.ReplaceAllString(text, "")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if text == "" {
		return "", fmt.Errorf("%w: empty reply", domain.ErrCleanupFailed)
	}
	return text, nil
}
