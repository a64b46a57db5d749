package server

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

type healthResponse struct {
	Status    string `json:"status"`
	Datastore string `json:"datastore"`
	Embedder  string `json:"embedder"`
}

// handleHealth probes the datastore and the embedding provider in
// parallel. The endpoint always answers 200; degradation shows in the
// body so load balancers keep routing while operators see the problem.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Datastore: "ok", Embedder: "ok"}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.store.Ping(ctx); err != nil {
			resp.Datastore = "unreachable"
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.provider.Embed(ctx, "ping"); err != nil {
			resp.Embedder = "unreachable"
		}
		return nil
	})
	g.Wait()

	if resp.Datastore != "ok" || resp.Embedder != "ok" {
		resp.Status = "degraded"
	}
	jsonResponse(w, http.StatusOK, resp)
}
