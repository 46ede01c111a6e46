package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError explains why generated text was discarded. Content that
// fails validation is never handed to the posting channel.
type ValidationError struct {
	Reason string
	Text   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid generated content: %s", e.Reason)
}

// Providers echo the task framing back often enough that these are worth
// stripping before length checks.
var echoPrefixes = []string{
	"tweet:",
	"reply:",
	"response:",
	"here's the tweet:",
	"here is the tweet:",
}

// Validate cleans raw provider output and enforces the content rules. The
// returned text is the exact string that may be posted.
func Validate(raw string, maxLength int) (string, error) {
	text := Clean(raw)
	if text == "" {
		return "", &ValidationError{Reason: "empty after cleaning", Text: raw}
	}
	if n := utf8.RuneCountInString(text); n > maxLength {
		return "", &ValidationError{
			Reason: fmt.Sprintf("%d characters, over the %d limit", n, maxLength),
			Text:   text,
		}
	}
	return text, nil
}

// Clean strips provider framing: code fences, surrounding quotes, and echoed
// prefixes like "Tweet:".
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = stripFence(text)
	text = strings.Trim(text, `"'`)

	for _, prefix := range echoPrefixes {
		if len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix) {
			text = strings.TrimSpace(text[len(prefix):])
		}
	}
	return strings.TrimSpace(text)
}

func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	// drop a language tag on the opening fence
	if i := strings.IndexByte(text, '\n'); i >= 0 && i < 16 && !strings.ContainsAny(text[:i], " \t") {
		text = text[i+1:]
	}
	return strings.TrimSpace(text)
}

// Preview truncates content for log fields.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= 50 {
		return text
	}
	return string(r[:50]) + "..."
}
