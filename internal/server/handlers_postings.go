package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/job-radar/internal/db"
)

func (s *Server) handleGetPosting(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid posting ID")
		return
	}

	posting, err := s.store.GetPosting(r.Context(), id)
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if posting == nil {
		errorResponse(w, http.StatusNotFound, "posting not found")
		return
	}
	jsonResponse(w, http.StatusOK, posting)
}

func (s *Server) handleListPostings(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	limit := parseQueryInt(r, "limit", 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := parseQueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	postings, total, err := s.store.ListPostings(r.Context(), filters, limit, offset)
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if postings == nil {
		postings = []db.Posting{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"postings": postings,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleCountPostings(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.CountPostings(r.Context(), filtersFromQuery(r))
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"total": total})
}

func (s *Server) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	posting, err := s.ingestor.IngestOne(r.Context(), raw, db.SourceManual)
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, posting)
}

func filtersFromQuery(r *http.Request) db.Filters {
	q := r.URL.Query()
	remoteOnly, _ := strconv.ParseBool(q.Get("remote_only"))
	return db.Filters{
		JobType:    q.Get("job_type"),
		Location:   q.Get("location"),
		RemoteOnly: remoteOnly,
	}
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
