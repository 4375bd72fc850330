package engine

import (
	"strings"

	"docchat/internal/domain"
)

// KeywordClassifier is the default query classifier. The matching rules are
// deliberately literal: a meta phrase must appear verbatim, and a query is
// grounded when any key term appears as a substring. Swap the Classifier
// implementation to change the rules; do not broaden these matches in place.
type KeywordClassifier struct {
	metaPhrases []string
	keyTerms    []string
}

// NewKeywordClassifier builds a classifier over the given key-term vocabulary.
func NewKeywordClassifier(keyTerms []string) *KeywordClassifier {
	terms := make([]string, len(keyTerms))
	for i, t := range keyTerms {
		terms[i] = strings.ToLower(t)
	}
	return &KeywordClassifier{
		metaPhrases: []string{"previous question"},
		keyTerms:    terms,
	}
}

// Classify maps a query to meta, grounded or smalltalk.
func (c *KeywordClassifier) Classify(query string) domain.Intent {
	q := strings.ToLower(query)
	for _, p := range c.metaPhrases {
		if strings.Contains(q, p) {
			return domain.IntentMeta
		}
	}
	for _, t := range c.keyTerms {
		if strings.Contains(q, t) {
			return domain.IntentGrounded
		}
	}
	return domain.IntentSmalltalk
}
