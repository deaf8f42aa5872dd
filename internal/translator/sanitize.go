package translator

import (
	"regexp"
	"strings"
)

// Providers pad translations with framing the document record must never
// carry: leading "Here is the translation:" phrases, markdown bullets,
// surrounding quotes, and parenthetical or bracketed asides.
var cleanupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^.*(?:translation|translate|here\s*(?:is|are)|this\s*is)[:\s]*`),
	regexp.MustCompile(`^(?:[\*\-"]+\s*)+`),
	regexp.MustCompile(`\s*\([^)]*\)\s*`),
	regexp.MustCompile(`\s*\[[^\]]*\]\s*`),
}

// CleanTranslation reduces a raw provider response to the bare translated
// title: first line only, framing phrases and asides stripped, surrounding
// whitespace trimmed. Applying it to an already-clean string is a no-op.
func CleanTranslation(raw string) string {
	line := raw
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	for _, pattern := range cleanupPatterns {
		line = pattern.ReplaceAllString(line, "")
	}

	return strings.TrimSpace(line)
}
