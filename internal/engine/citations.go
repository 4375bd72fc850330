package engine

import (
	"regexp"
	"strings"

	"docchat/internal/domain"
)

var numberRe = regexp.MustCompile(`\b\d+\b`)

// CitationConfig tunes the lexical-overlap citation selector.
type CitationConfig struct {
	// KeyTerms is the lowercase vocabulary matched against passage text.
	KeyTerms []string
	// MinOverlap is the number of matched numbers plus key terms a passage
	// needs to qualify.
	MinOverlap int
}

// selectCitations picks the sources an answer most plausibly drew from.
// A passage qualifies when enough of the answer's standalone numbers and the
// vocabulary's key terms appear in its text; qualifying sources keep retrieval
// order and are deduplicated by name. When nothing qualifies the top retrieved
// passage is cited so a grounded answer never ships without attribution.
func selectCitations(answer string, retrieved []domain.Candidate, cfg CitationConfig) []domain.Citation {
	if len(retrieved) == 0 {
		return nil
	}

	numbers := numberRe.FindAllString(strings.ToLower(answer), -1)

	var sources []string
	seen := make(map[string]bool)
	add := func(src string) {
		if src == "" {
			src = "document"
		}
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}

	for _, c := range retrieved {
		text := strings.ToLower(c.Passage.Text)
		overlap := 0
		for _, n := range numbers {
			if strings.Contains(text, n) {
				overlap++
			}
		}
		for _, t := range cfg.KeyTerms {
			if strings.Contains(text, t) {
				overlap++
			}
		}
		if overlap >= cfg.MinOverlap {
			add(c.Passage.Meta.Source)
		}
	}
	if len(sources) == 0 {
		add(retrieved[0].Passage.Meta.Source)
	}

	citations := make([]domain.Citation, len(sources))
	for i, src := range sources {
		citations[i] = domain.Citation{ID: i + 1, Source: src}
	}
	return citations
}
