package tfidf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"Rent is due on the 1st with a 5-day grace period.",
	"Maintenance requests are handled within 48 hours.",
	"Pets require an additional deposit of 300 dollars.",
}

func TestEmbedBeforePrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed(context.Background(), "rent")
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestPrepareAndEmbed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	assert.Greater(t, e.Dimension(), 0)

	vec, err := e.Embed(context.Background(), "when is rent due")
	require.NoError(t, err)
	require.Len(t, vec, e.Dimension())

	nonZero := false
	for _, v := range vec {
		if v != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero, "query sharing corpus terms must embed to a non-zero vector")
}

func TestEmbedUnknownTokensYieldsZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	vec, err := e.Embed(context.Background(), "zzzzqq xyzzy")
	require.NoError(t, err)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestEmbedDeterministic(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	a, err := e.Embed(context.Background(), "grace period")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "grace period")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStateRoundTrip(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	blob, err := e.EncodeState()
	require.NoError(t, err)

	restored := NewEmbedder()
	require.NoError(t, restored.DecodeState(blob))
	assert.Equal(t, e.Dimension(), restored.Dimension())

	want, err := e.Embed(context.Background(), "maintenance deposit")
	require.NoError(t, err)
	got, err := restored.Embed(context.Background(), "maintenance deposit")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPrepareEmptyCorpus(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Prepare(nil))
}
