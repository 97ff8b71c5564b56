package openai

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestClient(t *testing.T, url string, batchSize int) *Client {
	t.Helper()
	t.Setenv("TEST_API_KEY", "secret")
	c, err := NewClient(Config{
		BaseURL:   url,
		APIKeyEnv: "TEST_API_KEY",
		Model:     "test-model",
		BatchSize: batchSize,
	})
	require.NoError(t, err)
	return c
}

func serveEmbeddings(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		out := struct {
			Data []datum `json:"data"`
		}{}
		for i, text := range req.Input {
			vec := make([]float64, dim)
			vec[0] = float64(len(text))
			out.Data = append(out.Data, datum{Index: i, Embedding: vec})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("TEST_API_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_API_KEY"})
	assert.Error(t, err)
}

func TestEmbedSingleText(t *testing.T) {
	srv := serveEmbeddings(t, 4)
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	vec, err := c.Embed("ball valve")
	require.NoError(t, err)
	require.Len(t, vec, 4)
	assert.Equal(t, float64(len("ball valve")), vec[0])
	assert.Equal(t, 4, c.Dimension())
}

func TestEmbedBatchSplitsIntoBatches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Input), 2)

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		out := struct {
			Data []datum `json:"data"`
		}{}
		for i := range req.Input {
			out.Data = append(out.Data, datum{Index: i, Embedding: []float64{float64(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 2)

	vectors, err := c.EmbedBatch([]string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vectors, 5)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.5,0.5]}]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	vec, err := c.Embed("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedFailsOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	_, err := c.Embed("x")
	assert.Error(t, err)
}

func TestEmbedAcceptsOllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2,3]}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, 0)

	vec, err := c.Embed("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, vec)
	assert.Equal(t, 3, c.Dimension())
}
