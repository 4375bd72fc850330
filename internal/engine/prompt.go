package engine

import (
	"fmt"
	"strings"

	"docchat/internal/domain"
)

func groundedSystem(persona string) string {
	return fmt.Sprintf(`You are %s. Answer the user's question using only the context passages provided below.
Be concise and factual. If the context does not contain the answer, say you don't know based on the available documents.
Do not invent policies, dates or amounts. Do not mention the context or the passages themselves.`, persona)
}

func generalSystem(persona string) string {
	return fmt.Sprintf(`You are %s. Answer briefly and helpfully.
If the user asks about documents you have no information on, say you don't know based on the available documents.`, persona)
}

// buildContext renders up to maxPassages candidates as a numbered block,
// capped at maxChars runes overall. A truncated block ends with an ellipsis.
func buildContext(cands []domain.Candidate, maxPassages, maxChars int) string {
	if maxPassages > 0 && len(cands) > maxPassages {
		cands = cands[:maxPassages]
	}
	var b strings.Builder
	for i, c := range cands {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, strings.TrimSpace(c.Passage.Text))
	}
	s := b.String()
	if maxChars > 0 {
		if r := []rune(s); len(r) > maxChars {
			s = string(r[:maxChars]) + "…"
		}
	}
	return s
}

// formatHistory renders the most recent window messages as role-prefixed
// lines. Empty history renders as an empty string.
func formatHistory(history []domain.Message, window int) string {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		role := "User"
		if m.Role == domain.RoleAssistant {
			role = "Assistant"
		}
		lines = append(lines, role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func groundedUserMessage(history []domain.Message, window int, query, context string) string {
	var b strings.Builder
	if h := formatHistory(history, window); h != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nContext:\n")
	b.WriteString(context)
	return b.String()
}

func generalUserMessage(history []domain.Message, window int, query string) string {
	var b strings.Builder
	if h := formatHistory(history, window); h != "" {
		b.WriteString("Conversation so far:\n")
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
