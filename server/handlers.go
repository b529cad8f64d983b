// Copyright 2026 Veritom Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veritom/knowbase/config"
	"github.com/veritom/knowbase/core"
	"github.com/veritom/knowbase/ingest"
	"github.com/veritom/knowbase/search"
	"github.com/veritom/knowbase/storage"
)

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}

	resp, err := s.searcher.Search(c.Request().Context(), search.Request{
		Query:       req.Query,
		TicketKey:   req.TicketKey,
		MaxResults:  req.MaxResults,
		Collections: req.Collections,
		WithSummary: req.WithSummary,
	})
	if err != nil {
		return s.searchError(c, err)
	}

	results := make([]searchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = searchResult{
			ID:         r.Document.ID,
			SourceType: r.SourceType.String(),
			Content:    r.Document.Content,
			Metadata:   metadataToWire(r.Document.Metadata),
			Similarity: r.Similarity,
			Rank:       r.Rank,
			Exact:      r.Exact,
		}
	}
	return c.JSON(http.StatusOK, searchResponse{
		Results:  results,
		Degraded: resp.Degraded,
		Summary:  resp.Summary,
	})
}

// searchError maps a fatal query error onto a structured payload. An empty
// result list is a success; this path only handles failures.
func (s *Server) searchError(c echo.Context, err error) error {
	s.logger.Error("search failed", "err", err)
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return jsonError(c, http.StatusBadRequest, "empty_query", err.Error())
	case errors.Is(err, storage.ErrStoreUnavailable):
		return jsonError(c, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	case errors.Is(err, storage.ErrDimensionMismatch):
		return jsonError(c, http.StatusInternalServerError, "dimension_mismatch", err.Error())
	default:
		return jsonError(c, http.StatusInternalServerError, "search_failed", err.Error())
	}
}

func (s *Server) handleIngest(c echo.Context) error {
	var req ingestRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if len(req.Documents) == 0 {
		return jsonError(c, http.StatusBadRequest, "invalid_request", "documents required")
	}

	// Group items per collection, remembering each item's position so the
	// response statuses line up with the request order.
	type indexed struct {
		item ingest.Item
		pos  int
	}
	groups := make(map[string][]indexed)
	statuses := make([]ingestStatus, len(req.Documents))

	for i, d := range req.Documents {
		sourceType, err := sourceTypeFromWire(d.SourceType)
		if err != nil {
			statuses[i] = ingestStatus{Status: ingest.StatusFailed.String(), Error: err.Error()}
			continue
		}
		metadata, err := metadataFromWire(d.Metadata)
		if err != nil {
			statuses[i] = ingestStatus{Status: ingest.StatusFailed.String(), Error: err.Error()}
			continue
		}
		collection := sourceType.Collection()
		groups[collection] = append(groups[collection], indexed{
			item: ingest.Item{SourceType: sourceType, Content: d.Content, Metadata: metadata},
			pos:  i,
		})
	}

	for collection, group := range groups {
		items := make([]ingest.Item, len(group))
		for i, g := range group {
			items[i] = g.item
		}
		results, err := s.pipeline.Ingest(c.Request().Context(), collection, items)
		if err != nil {
			// Batch-level failure (embedding); every item in the group fails.
			for _, g := range group {
				statuses[g.pos] = ingestStatus{Status: ingest.StatusFailed.String(), Error: err.Error()}
			}
			continue
		}
		for i, g := range group {
			status := ingestStatus{
				Status:     results[i].Outcome.Status.String(),
				DocumentID: results[i].Outcome.DocumentID,
			}
			if results[i].Err != nil {
				status.Error = results[i].Err.Error()
			}
			statuses[g.pos] = status
		}
	}

	return c.JSON(http.StatusOK, ingestResponse{Statuses: statuses})
}

func (s *Server) handleListCollections(c echo.Context) error {
	summaries, err := s.store.ListCollections(c.Request().Context())
	if err != nil {
		return s.storeError(c, err)
	}

	out := make([]collectionSummary, len(summaries))
	for i, summary := range summaries {
		docs := make([]collectionDocument, len(summary.Documents))
		for j, doc := range summary.Documents {
			docs[j] = collectionDocument{
				ID:          doc.ID,
				SourceType:  doc.SourceType.String(),
				Content:     doc.Content,
				ContentHash: doc.ContentHash,
			}
		}
		out[i] = collectionSummary{Name: summary.Name, Count: summary.Count, Documents: docs}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleClearCollection(c echo.Context) error {
	if err := s.gate.Clear(c.Request().Context(), c.Param("name")); err != nil {
		return s.storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetDocument(c echo.Context) error {
	doc, err := s.store.Get(c.Request().Context(), c.Param("name"), c.Param("id"))
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(http.StatusOK, searchResult{
		ID:         doc.ID,
		SourceType: doc.SourceType.String(),
		Content:    doc.Content,
		Metadata:   metadataToWire(doc.Metadata),
	})
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	if err := s.gate.Delete(c.Request().Context(), c.Param("name"), c.Param("id")); err != nil {
		return s.storeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetThreshold(c echo.Context) error {
	return c.JSON(http.StatusOK, thresholdPayload{
		SimilarityThreshold: s.settings.Snapshot().SimilarityThreshold,
	})
}

func (s *Server) handleSetThreshold(c echo.Context) error {
	var payload thresholdPayload
	if err := c.Bind(&payload); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if err := s.settings.SetSimilarityThreshold(payload.SimilarityThreshold); err != nil {
		if errors.Is(err, config.ErrInvalidThreshold) {
			return jsonError(c, http.StatusBadRequest, "invalid_threshold", err.Error())
		}
		return jsonError(c, http.StatusInternalServerError, "config_update_failed", err.Error())
	}
	return c.JSON(http.StatusOK, thresholdPayload{
		SimilarityThreshold: s.settings.Snapshot().SimilarityThreshold,
	})
}

func (s *Server) handleGetTopResults(c echo.Context) error {
	return c.JSON(http.StatusOK, topResultsPayload{
		TopResults: s.settings.Snapshot().LLMTopResults,
	})
}

func (s *Server) handleSetTopResults(c echo.Context) error {
	var payload topResultsPayload
	if err := c.Bind(&payload); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if err := s.settings.SetLLMTopResults(payload.TopResults); err != nil {
		if errors.Is(err, config.ErrInvalidTopResults) {
			return jsonError(c, http.StatusBadRequest, "invalid_top_results", err.Error())
		}
		return jsonError(c, http.StatusInternalServerError, "config_update_failed", err.Error())
	}
	return c.JSON(http.StatusOK, topResultsPayload{
		TopResults: s.settings.Snapshot().LLMTopResults,
	})
}

func (s *Server) storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return jsonError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, storage.ErrStoreUnavailable):
		s.logger.Error("store unavailable", "err", err)
		return jsonError(c, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	case errors.Is(err, core.ErrInvalidSourceType), errors.Is(err, core.ErrInvalidMetadata):
		return jsonError(c, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		s.logger.Error("store operation failed", "err", err)
		return jsonError(c, http.StatusInternalServerError, "store_failed", err.Error())
	}
}

func jsonError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, errorPayload{Error: errorBody{Code: code, Message: message}})
}
