package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 200, *cfg.Chunker.Overlap)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, 0.5, cfg.Retrieval.SessionWeight)
	assert.Equal(t, 100, cfg.Retrieval.OriginOffset)
	assert.Equal(t, 2, *cfg.Citations.MinOverlap)
	assert.NotEmpty(t, cfg.Citations.KeyTerms)
	assert.Contains(t, cfg.Prompt.Persona, "property management")
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\nretrieval:\n  top_k: 6\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
	// search_k is raised to at least top_k
	assert.Equal(t, 6, cfg.Retrieval.SearchK)
	assert.Equal(t, 1000, cfg.Chunker.Size)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Server.Addr = ":7777"
	cfg.Sessions.TTLMinutes = 30

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", loaded.Server.Addr)
	assert.Equal(t, 30, loaded.Sessions.TTLMinutes)
	assert.Equal(t, cfg.Citations.KeyTerms, loaded.Citations.KeyTerms)
}

func TestInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestExplicitZeroValuesSurviveDefaulting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "chunker:\n" +
		"  overlap: 0\n" +
		"completion:\n" +
		"  temperature: 0\n" +
		"retrieval:\n" +
		"  boost_nudge: 0\n" +
		"citations:\n" +
		"  min_overlap: 0\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0, *cfg.Chunker.Overlap)
	assert.Equal(t, 0.0, *cfg.Completion.Temperature)
	assert.Equal(t, 0.0, *cfg.Retrieval.BoostNudge)
	assert.Equal(t, 0, *cfg.Citations.MinOverlap)
}
