package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/domain"
)

type fakeSearcher struct {
	candidates []domain.Candidate
	err        error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, k int) ([]domain.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := append([]domain.Candidate(nil), f.candidates...)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type fakeSessions struct {
	index domain.Searcher
}

func (f *fakeSessions) IndexFor(string) domain.Searcher { return f.index }

func cand(source string, score float64) domain.Candidate {
	return domain.Candidate{
		Passage: domain.Passage{Text: "text from " + source, Meta: domain.Metadata{Source: source}},
		Score:   score,
	}
}

func testConfig() Config {
	return Config{
		TopK:          4,
		SearchK:       4,
		SessionWeight: 0.5,
		OriginOffset:  100,
		BoostNudge:    0.5,
		MinTokenLen:   3,
	}
}

func TestRetrieveWithoutSessionIndex(t *testing.T) {
	perm := &fakeSearcher{candidates: []domain.Candidate{cand("a.txt", 0.1), cand("b.txt", 0.2)}}
	r := New(perm, &fakeSessions{}, testConfig(), nil)

	got := r.Retrieve(context.Background(), "s1", "irrelevant")
	require.Len(t, got, 2)
	assert.Equal(t, "a.txt", got[0].Passage.Meta.Source)
}

func TestSessionMaterialOutranksEqualRelevance(t *testing.T) {
	perm := &fakeSearcher{candidates: []domain.Candidate{cand("corpus.txt", 0.4)}}
	sess := &fakeSearcher{candidates: []domain.Candidate{cand("upload.txt", 0.4)}}
	r := New(perm, &fakeSessions{index: sess}, testConfig(), nil)

	got := r.Retrieve(context.Background(), "s1", "irrelevant")
	require.Len(t, got, 2)
	// 0.4 * 0.5 = 0.2 beats the permanent 0.4.
	assert.Equal(t, "upload.txt", got[0].Passage.Meta.Source)
}

func TestExactTieGoesToSessionMaterial(t *testing.T) {
	perm := &fakeSearcher{candidates: []domain.Candidate{cand("corpus.txt", 0.2)}}
	sess := &fakeSearcher{candidates: []domain.Candidate{cand("upload.txt", 0.4)}}
	r := New(perm, &fakeSessions{index: sess}, testConfig(), nil)

	// Session score 0.4 * 0.5 == permanent 0.2; the origin offset breaks
	// the tie in the session's favor.
	got := r.Retrieve(context.Background(), "s1", "irrelevant")
	require.Len(t, got, 2)
	assert.Equal(t, "upload.txt", got[0].Passage.Meta.Source)
}

func TestTruncatesToTopK(t *testing.T) {
	perm := &fakeSearcher{candidates: []domain.Candidate{
		cand("a.txt", 0.1), cand("b.txt", 0.2), cand("c.txt", 0.3), cand("d.txt", 0.4),
	}}
	sess := &fakeSearcher{candidates: []domain.Candidate{
		cand("u1.txt", 0.1), cand("u2.txt", 0.2),
	}}
	r := New(perm, &fakeSessions{index: sess}, testConfig(), nil)

	got := r.Retrieve(context.Background(), "s1", "irrelevant")
	assert.Len(t, got, 4)
}

func TestFailingSessionSearchDegradesToPermanentOnly(t *testing.T) {
	perm := &fakeSearcher{candidates: []domain.Candidate{cand("a.txt", 0.1)}}
	sess := &fakeSearcher{err: errors.New("embedding service down")}
	r := New(perm, &fakeSessions{index: sess}, testConfig(), nil)

	got := r.Retrieve(context.Background(), "s1", "irrelevant")
	require.Len(t, got, 1)
	assert.Equal(t, "a.txt", got[0].Passage.Meta.Source)
}

func TestBothSourcesFailingYieldsEmpty(t *testing.T) {
	perm := &fakeSearcher{err: errors.New("down")}
	sess := &fakeSearcher{err: errors.New("down")}
	r := New(perm, &fakeSessions{index: sess}, testConfig(), nil)

	assert.Empty(t, r.Retrieve(context.Background(), "s1", "irrelevant"))
}

func TestKeywordBoostIsStable(t *testing.T) {
	// No candidate contains any query token; order must match the merged
	// score order exactly.
	perm := &fakeSearcher{candidates: []domain.Candidate{
		cand("a.txt", 0.1), cand("b.txt", 0.2), cand("c.txt", 0.3),
	}}
	r := New(perm, &fakeSessions{}, testConfig(), nil)

	got := r.Retrieve(context.Background(), "s1", "zzzz qqqq")
	require.Len(t, got, 3)
	assert.Equal(t, "a.txt", got[0].Passage.Meta.Source)
	assert.Equal(t, "b.txt", got[1].Passage.Meta.Source)
	assert.Equal(t, "c.txt", got[2].Passage.Meta.Source)
}

func TestQueryTokens(t *testing.T) {
	got := queryTokens("Is rent due on the 1st? By 5pm!", 3)
	assert.Contains(t, got, "rent")
	assert.Contains(t, got, "due")
	assert.Contains(t, got, "1")
	assert.Contains(t, got, "5")
	assert.NotContains(t, got, "is", "short non-numeric tokens are dropped")
	assert.NotContains(t, got, "on")
	assert.NotContains(t, got, "by")
}
