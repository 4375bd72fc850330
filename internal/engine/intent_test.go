package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docchat/internal/config"
	"docchat/internal/domain"
)

func TestClassifyIntents(t *testing.T) {
	c := NewKeywordClassifier(config.DefaultKeyTerms)

	cases := []struct {
		query string
		want  domain.Intent
	}{
		{"What was my previous question?", domain.IntentMeta},
		{"repeat the PREVIOUS QUESTION please", domain.IntentMeta},
		{"When is rent due?", domain.IntentGrounded},
		{"Is there a pet deposit?", domain.IntentGrounded},
		{"Hello there!", domain.IntentSmalltalk},
		{"What's the weather like today?", domain.IntentSmalltalk},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.query), "query=%q", tc.query)
	}
}

func TestClassifyMetaWinsOverKeyTerms(t *testing.T) {
	c := NewKeywordClassifier(config.DefaultKeyTerms)
	// a meta phrase outranks a grounded key term in the same query
	assert.Equal(t, domain.IntentMeta, c.Classify("what was my previous question about rent?"))
}
