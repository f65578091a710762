package proxy

import (
	"regexp"
	"strings"

	"github.com/emilio-vasquez/digitaltwin/internal/persona"
)

// NoTextFallback is returned as persona_text when the upstream produced
// nothing usable.
const NoTextFallback = "(No text returned)"

var blankLine = regexp.MustCompile(`\n\s*\n`)

// RenderHTML escapes text and turns blank-line separated chunks into
// paragraphs, with single newlines kept as <br>.
func RenderHTML(text string) string {
	escaped := persona.EscapeHTML(text)
	chunks := blankLine.Split(escaped, -1)

	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(chunk, "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// Truncate cuts text to at most max runes. max <= 0 disables it.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max]))
}
