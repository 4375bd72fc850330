package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

func candidate(text, source string) domain.Candidate {
	return domain.Candidate{Passage: domain.Passage{Text: text, Meta: domain.Metadata{Source: source}}}
}

func TestSelectCitationsNumbersAndKeyTerms(t *testing.T) {
	cfg := CitationConfig{KeyTerms: []string{"rent", "grace", "period"}, MinOverlap: 2}
	retrieved := []domain.Candidate{
		candidate("Rent is due on the 1st with a grace period of 5 days.", "lease.txt"),
		candidate("Quiet hours end at seven in the morning.", "rules.txt"),
	}

	cits := selectCitations("Rent is due on the 1st, with a 5 day grace period.", retrieved, cfg)
	require.Len(t, cits, 1)
	assert.Equal(t, domain.Citation{ID: 1, Source: "lease.txt"}, cits[0])
}

func TestSelectCitationsDedupesBySourceInRetrievalOrder(t *testing.T) {
	cfg := CitationConfig{KeyTerms: []string{"rent", "due"}, MinOverlap: 2}
	retrieved := []domain.Candidate{
		candidate("Rent is due monthly.", "lease.txt"),
		candidate("Rent is due by the first.", "lease.txt"),
		candidate("Rent payments past due accrue a fee.", "fees.txt"),
	}

	cits := selectCitations("Rent is due monthly.", retrieved, cfg)
	require.Len(t, cits, 2)
	assert.Equal(t, domain.Citation{ID: 1, Source: "lease.txt"}, cits[0])
	assert.Equal(t, domain.Citation{ID: 2, Source: "fees.txt"}, cits[1])
}

func TestSelectCitationsFallsBackToTopPassage(t *testing.T) {
	cfg := CitationConfig{KeyTerms: []string{"rent"}, MinOverlap: 2}
	retrieved := []domain.Candidate{
		candidate("Quiet hours end at seven in the morning.", "rules.txt"),
		candidate("Parking permits renew annually.", "parking.txt"),
	}

	cits := selectCitations("I don't know based on the available documents.", retrieved, cfg)
	require.Len(t, cits, 1)
	assert.Equal(t, "rules.txt", cits[0].Source)
}

func TestSelectCitationsEmptyRetrieval(t *testing.T) {
	assert.Nil(t, selectCitations("anything", nil, CitationConfig{MinOverlap: 2}))
}

func TestSelectCitationsMissingSourceNamedDocument(t *testing.T) {
	cfg := CitationConfig{KeyTerms: []string{"rent", "due"}, MinOverlap: 2}
	cits := selectCitations("Rent is due.", []domain.Candidate{candidate("Rent is due monthly.", "")}, cfg)
	require.Len(t, cits, 1)
	assert.Equal(t, "document", cits[0].Source)
}
