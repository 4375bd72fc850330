package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vec := make([]float64, dim)
		for i := range vec {
			vec[i] = 0.1
		}
		resp := map[string]any{
			"data": []map[string]any{{"embedding": vec}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	t.Setenv("TEST_EMBED_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: baseURL, APIKeyEnv: "TEST_EMBED_KEY"})
	require.NoError(t, err)
	return c
}

func TestEmbedLearnsDimension(t *testing.T) {
	srv := embeddingServer(t, 8)
	c := newTestClient(t, srv.URL)

	assert.Equal(t, 0, c.Dimension())
	vec, err := c.Embed(context.Background(), "rent")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
	assert.Equal(t, 8, c.Dimension())
}

func TestEmbedConcurrent(t *testing.T) {
	srv := embeddingServer(t, 8)
	c := newTestClient(t, srv.URL)

	// Distinct inputs so every goroutine goes to the service and races on
	// the first dimension write.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vec, err := c.Embed(context.Background(), fmt.Sprintf("text %d", i))
			assert.NoError(t, err)
			assert.Len(t, vec, 8)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, c.Dimension())
}

func TestEmbedServesRepeatsFromCache(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		resp := map[string]any{"data": []map[string]any{{"embedding": []float64{0.5, 0.5}}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)

	for i := 0; i < 3; i++ {
		_, err := c.Embed(context.Background(), "same query")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)
}
