package engine

import (
	"strings"
	"unicode"
)

// FallbackAnswer replaces completions that clean down to nothing.
const FallbackAnswer = "I don't know based on the available documents."

var emphasisReplacer = strings.NewReplacer("**", "", "__", "", "*", "", "`", "")

// cleanAnswer normalizes a raw completion for display: code fences and
// per-line "source:" attributions go away, emphasis markup is stripped, and
// leading separator punctuation is trimmed. An answer with no letters or
// digits left becomes FallbackAnswer.
func cleanAnswer(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	var kept []string
	for _, line := range strings.Split(s, "\n") {
		l := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(l, "source:") || strings.HasPrefix(l, "sources:") {
			continue
		}
		kept = append(kept, line)
	}
	s = strings.Join(kept, "\n")

	s = emphasisReplacer.Replace(s)
	s = strings.TrimLeft(s, ":-—– \t\n")
	s = strings.TrimSpace(s)

	if !strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) {
		return FallbackAnswer
	}
	return s
}
