package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jonathan/job-radar/internal/db"
)

type ingestRequest struct {
	Records []map[string]any `json:"records"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Records) == 0 {
		errorResponse(w, http.StatusBadRequest, "records list is empty")
		return
	}

	report := s.ingestor.Ingest(r.Context(), req.Records, db.SourceManual)
	jsonResponse(w, http.StatusOK, report)
}

type remoteIngestRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) handleIngestRemote(w http.ResponseWriter, r *http.Request) {
	if s.fetcher == nil || !s.fetcher.IsConfigured() {
		errorResponse(w, http.StatusServiceUnavailable, "external job API is not configured")
		return
	}

	var req remoteIngestRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	if req.Limit <= 0 {
		req.Limit = s.fetchLimit
	}

	records, err := s.fetcher.Fetch(r.Context(), req.Limit)
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	report := s.ingestor.Ingest(r.Context(), records, db.SourceExternalAPI)
	jsonResponse(w, http.StatusOK, report)
}
