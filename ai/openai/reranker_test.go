package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritom/knowbase/ai"
)

func newRerankConfig(host string) *ai.Config {
	return ai.NewConfig(ai.WithHost(host), ai.WithAPIKey("test-key"))
}

func TestRerankerParsesAndSortsResults(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq rerankRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 1, "relevance_score": 0.42},
				{"index": 0, "relevance_score": 0.91},
				{"index": 2, "relevance_score": 0.07},
			},
		})
	}))
	defer server.Close()

	reranker, err := NewReranker(newRerankConfig(server.URL))
	require.NoError(t, err)

	results, err := reranker.Rerank(context.Background(), "auth timeout",
		[]string{"doc a", "doc b", "doc c"}, 0)
	require.NoError(t, err)

	assert.Equal(t, "/v1/rerank", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "auth timeout", gotReq.Query)
	assert.Len(t, gotReq.Documents, 3)

	require.Len(t, results, 3)
	assert.Equal(t, ai.RerankResult{Index: 0, Score: 0.91}, results[0])
	assert.Equal(t, ai.RerankResult{Index: 1, Score: 0.42}, results[1])
	assert.Equal(t, ai.RerankResult{Index: 2, Score: 0.07}, results[2])
}

func TestRerankerDropsOutOfRangeIndexes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"index": 0, "relevance_score": 0.5},
				{"index": 7, "relevance_score": 0.9},
			},
		})
	}))
	defer server.Close()

	reranker, err := NewReranker(newRerankConfig(server.URL))
	require.NoError(t, err)

	results, err := reranker.Rerank(context.Background(), "q", []string{"only doc"}, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Index)
}

func TestRerankerServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	reranker, err := NewReranker(newRerankConfig(server.URL))
	require.NoError(t, err)

	_, err = reranker.Rerank(context.Background(), "q", []string{"doc"}, 0)
	assert.ErrorIs(t, err, ai.ErrRerankerUnavailable)
}

func TestRerankerUnreachableHostIsUnavailable(t *testing.T) {
	reranker, err := NewReranker(newRerankConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = reranker.Rerank(context.Background(), "q", []string{"doc"}, 0)
	assert.ErrorIs(t, err, ai.ErrRerankerUnavailable)
}

func TestRerankerEmptyDocuments(t *testing.T) {
	reranker, err := NewReranker(newRerankConfig("http://127.0.0.1:1"))
	require.NoError(t, err)

	results, err := reranker.Rerank(context.Background(), "q", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
