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
	"fmt"

	"github.com/veritom/knowbase/core"
)

type searchRequest struct {
	Query       string   `json:"query"`
	TicketKey   string   `json:"ticket_key,omitempty"`
	MaxResults  int      `json:"max_results,omitempty"`
	Collections []string `json:"collections,omitempty"`
	WithSummary bool     `json:"with_summary,omitempty"`
}

type searchResult struct {
	ID         string         `json:"id"`
	SourceType string         `json:"source_type"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Similarity float64        `json:"similarity"`
	Rank       int            `json:"rank"`
	Exact      bool           `json:"exact"`
}

type searchResponse struct {
	Results  []searchResult `json:"results"`
	Degraded bool           `json:"degraded"`
	Summary  string         `json:"summary,omitempty"`
}

type ingestDocument struct {
	SourceType string         `json:"source_type"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type ingestRequest struct {
	Documents []ingestDocument `json:"documents"`
}

type ingestStatus struct {
	Status     string `json:"status"`
	DocumentID string `json:"document_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type ingestResponse struct {
	Statuses []ingestStatus `json:"statuses"`
}

type collectionSummary struct {
	Name      string               `json:"name"`
	Count     int                  `json:"count"`
	Documents []collectionDocument `json:"documents"`
}

type collectionDocument struct {
	ID          string `json:"id"`
	SourceType  string `json:"source_type"`
	Content     string `json:"content"`
	ContentHash string `json:"content_hash"`
}

type thresholdPayload struct {
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

type topResultsPayload struct {
	TopResults int `json:"top_results"`
}

type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sourceTypeFromWire maps a wire name back to the enum.
func sourceTypeFromWire(name string) (core.SourceType, error) {
	for _, st := range []core.SourceType{
		core.SourceTypeIssue,
		core.SourceTypeJiraTicket,
		core.SourceTypeConfluencePage,
		core.SourceTypeStackOverflowItem,
	} {
		if st.String() == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", core.ErrInvalidSourceType, name)
}

// metadataFromWire converts a JSON object into ordered metadata. Only the
// closed set of value kinds is accepted.
func metadataFromWire(m map[string]any) (core.Metadata, error) {
	var metadata core.Metadata
	for key, raw := range m {
		switch v := raw.(type) {
		case string:
			metadata = metadata.Set(key, core.String(v))
		case float64:
			metadata = metadata.Set(key, core.Number(v))
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("%w: key %q: list values must be strings", core.ErrInvalidMetadata, key)
				}
				items = append(items, s)
			}
			metadata = metadata.Set(key, core.StringList(items...))
		default:
			return nil, fmt.Errorf("%w: key %q: unsupported value type %T", core.ErrInvalidMetadata, key, raw)
		}
	}
	return metadata, nil
}

// metadataToWire converts metadata into a JSON object.
func metadataToWire(m core.Metadata) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for _, f := range m {
		switch f.Value.Kind {
		case core.KindString:
			out[f.Key] = f.Value.Str
		case core.KindNumber:
			out[f.Key] = f.Value.Num
		case core.KindStringList:
			out[f.Key] = f.Value.List
		}
	}
	return out
}
