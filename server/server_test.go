package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veritom/knowbase/ai/mock"
	"github.com/veritom/knowbase/config"
	"github.com/veritom/knowbase/ingest"
	"github.com/veritom/knowbase/lexical"
	"github.com/veritom/knowbase/search"
	"github.com/veritom/knowbase/storage/badger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := badger.NewMemoryVectorStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	index := lexical.NewIndex()
	provider := mock.NewMockProvider()

	gate, err := ingest.NewGate(store, index)
	require.NoError(t, err)

	pipeline, err := ingest.NewPipeline(gate, provider.Embedder())
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	settings, err := config.NewSettings()
	require.NoError(t, err)

	searcher, err := search.NewSearcher(store, index, provider, settings)
	require.NoError(t, err)

	srv, err := NewServer(searcher, pipeline, gate, store, settings)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func ingestDocs(t *testing.T, srv *Server, docs ...ingestDocument) ingestResponse {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/documents", ingestRequest{Documents: docs})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Statuses, len(docs))
	return resp
}

func TestServerIngestAndSearch(t *testing.T) {
	srv := newTestServer(t)

	resp := ingestDocs(t, srv,
		ingestDocument{SourceType: "issue", Content: "database connection pool exhausted under load"},
		ingestDocument{SourceType: "issue", Content: "certificate renewal cron job failing silently"},
		ingestDocument{SourceType: "issue", Content: "database connection pool exhausted under load"},
	)

	assert.Equal(t, "inserted", resp.Statuses[0].Status)
	assert.NotEmpty(t, resp.Statuses[0].DocumentID)
	assert.Equal(t, "inserted", resp.Statuses[1].Status)
	assert.Equal(t, "duplicate", resp.Statuses[2].Status)
	assert.Equal(t, resp.Statuses[0].DocumentID, resp.Statuses[2].DocumentID)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", searchRequest{
		Query: "database connection pool exhausted",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sr searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
	require.NotEmpty(t, sr.Results)
	assert.False(t, sr.Degraded)
	assert.Equal(t, 0, sr.Results[0].Rank)
	assert.Equal(t, "issue", sr.Results[0].SourceType)
	assert.Contains(t, sr.Results[0].Content, "database connection pool")
}

func TestServerSearchEmptyQuery(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", searchRequest{Query: "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var payload errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "empty_query", payload.Error.Code)
	assert.NotEmpty(t, payload.Error.Message)
}

func TestServerSearchNoMatchesIsSuccess(t *testing.T) {
	srv := newTestServer(t)

	ingestDocs(t, srv,
		ingestDocument{SourceType: "issue", Content: "printer driver crashes on startup"},
	)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/search", searchRequest{
		Query: "kubernetes ingress rewrite annotation",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sr searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sr))
	assert.Empty(t, sr.Results)
	assert.False(t, sr.Degraded)
}

func TestServerIngestBadItemDoesNotAbortBatch(t *testing.T) {
	srv := newTestServer(t)

	resp := ingestDocs(t, srv,
		ingestDocument{SourceType: "carrier_pigeon", Content: "lost in transit"},
		ingestDocument{SourceType: "issue", Content: "vpn tunnel drops every four hours"},
	)

	assert.Equal(t, "failed", resp.Statuses[0].Status)
	assert.NotEmpty(t, resp.Statuses[0].Error)
	assert.Equal(t, "inserted", resp.Statuses[1].Status)
}

func TestServerCollectionsListAndClear(t *testing.T) {
	srv := newTestServer(t)

	ingestDocs(t, srv,
		ingestDocument{SourceType: "issue", Content: "smtp relay rejecting internal senders"},
		ingestDocument{SourceType: "confluence_page", Content: "runbook for smtp relay maintenance"},
	)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/collections", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []collectionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))

	counts := make(map[string]int)
	for _, s := range summaries {
		counts[s.Name] = s.Count
	}
	assert.Equal(t, 1, counts["issues"])
	assert.Equal(t, 1, counts["confluence_pages"])

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/collections/issues", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/collections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summaries = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	for _, s := range summaries {
		assert.NotEqual(t, "issues", s.Name)
	}
}

func TestServerGetAndDeleteDocument(t *testing.T) {
	srv := newTestServer(t)

	resp := ingestDocs(t, srv,
		ingestDocument{SourceType: "issue", Content: "ldap sync skips disabled accounts"},
	)
	id := resp.Statuses[0].DocumentID
	require.NotEmpty(t, id)

	path := fmt.Sprintf("/api/v1/collections/issues/documents/%s", id)

	rec := doJSON(t, srv, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doc searchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "issue", doc.SourceType)

	rec = doJSON(t, srv, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, path, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var payload errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "not_found", payload.Error.Code)
}

func TestServerThresholdConfig(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/config/similarity-threshold", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var threshold thresholdPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &threshold))
	assert.InDelta(t, config.DefaultSimilarityThreshold, threshold.SimilarityThreshold, 1e-9)

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/config/similarity-threshold",
		thresholdPayload{SimilarityThreshold: 0.75})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/config/similarity-threshold", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &threshold))
	assert.InDelta(t, 0.75, threshold.SimilarityThreshold, 1e-9)

	for _, bad := range []float64{0, 1, -0.3, 1.5} {
		rec = doJSON(t, srv, http.MethodPut, "/api/v1/config/similarity-threshold",
			thresholdPayload{SimilarityThreshold: bad})
		require.Equal(t, http.StatusBadRequest, rec.Code, "threshold %v", bad)

		var payload errorPayload
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, "invalid_threshold", payload.Error.Code)
		assert.Contains(t, payload.Error.Message, "(0, 1)")
	}

	// Rejected updates never clobber the active value.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/config/similarity-threshold", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &threshold))
	assert.InDelta(t, 0.75, threshold.SimilarityThreshold, 1e-9)
}

func TestServerTopResultsConfig(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/api/v1/config/top-results",
		topResultsPayload{TopResults: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/config/top-results", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var topResults topResultsPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &topResults))
	assert.Equal(t, 5, topResults.TopResults)

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/config/top-results",
		topResultsPayload{TopResults: 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var payload errorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "invalid_top_results", payload.Error.Code)
}
