// Package server exposes the retrieval core over HTTP.
//
// Routes live under /api/v1: search, batch document ingest, collection
// administration, and the runtime configuration endpoints. Fatal query
// errors produce a structured error payload, so callers can always tell
// "no matches" from "retrieval failed".
package server
