// Package recommend ranks stored postings against a free-text query by
// embedding the query and running a cosine nearest-neighbor search.
package recommend

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/embedding"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Query is a recommendation request.
type Query struct {
	Query      string  `json:"query" validate:"required"`
	Limit      int     `json:"limit" validate:"omitempty,min=1,max=100"`
	MinScore   float64 `json:"min_score" validate:"omitempty,gte=0,lte=1"`
	JobType    string  `json:"job_type" validate:"omitempty,oneof=full-time internship part-time contract unknown"`
	Location   string  `json:"location"`
	RemoteOnly bool    `json:"remote_only"`
}

// ValidationError reports a rejected query.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid recommendation query: " + e.Reason
}

// Recommendation is one ranked posting. The score is cosine similarity in
// [0, 1], higher meaning more relevant.
type Recommendation struct {
	db.Posting
	SimilarityScore float64 `json:"similarity_score"`
}

// Result is a full recommendation response.
type Result struct {
	Query           string           `json:"query"`
	Recommendations []Recommendation `json:"recommendations"`
	Total           int              `json:"total"`
}

// Searcher is the slice of the storage layer the engine reads from.
type Searcher interface {
	SearchNearest(ctx context.Context, vec []float32, f db.Filters, limit int) ([]db.SearchHit, error)
}

// Engine embeds queries and ranks postings.
type Engine struct {
	store    Searcher
	embedder embedding.Provider
	validate *validator.Validate
}

func New(store Searcher, embedder embedding.Provider) *Engine {
	return &Engine{
		store:    store,
		embedder: embedder,
		validate: validator.New(),
	}
}

// Recommend validates the query, embeds it, and returns postings ranked by
// similarity. The query text is checked before any embedding call, so a
// blank query costs nothing.
func (e *Engine) Recommend(ctx context.Context, q Query) (*Result, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return nil, &ValidationError{Reason: "query text is required"}
	}
	if err := e.validate.Struct(q); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	vec, err := e.embedder.Embed(ctx, q.Query)
	if err != nil {
		return nil, err
	}

	filters := db.Filters{
		JobType:    q.JobType,
		Location:   q.Location,
		RemoteOnly: q.RemoteOnly,
	}
	hits, err := e.store.SearchNearest(ctx, vec, filters, q.Limit)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(hits))
	for _, hit := range hits {
		score := 1 - hit.Distance
		if score < q.MinScore {
			continue
		}
		recs = append(recs, Recommendation{Posting: hit.Posting, SimilarityScore: score})
	}

	// Highest score first; equal scores ordered by ID so results are
	// stable across runs.
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].SimilarityScore != recs[j].SimilarityScore {
			return recs[i].SimilarityScore > recs[j].SimilarityScore
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})

	return &Result{
		Query:           q.Query,
		Recommendations: recs,
		Total:           len(recs),
	}, nil
}
