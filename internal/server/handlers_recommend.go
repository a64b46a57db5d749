package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/job-radar/internal/recommend"
)

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var q recommend.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.recommender.Recommend(r.Context(), q)
	if err != nil {
		errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, result)
}
