package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/embedding"
	"github.com/jonathan/job-radar/internal/ingestion"
	"github.com/jonathan/job-radar/internal/normalize"
	"github.com/jonathan/job-radar/internal/recommend"
	"github.com/jonathan/job-radar/internal/source"
)

type fakeStore struct {
	postings map[uuid.UUID]*db.Posting
	pingErr  error
}

func (s *fakeStore) GetPosting(_ context.Context, id uuid.UUID) (*db.Posting, error) {
	return s.postings[id], nil
}

func (s *fakeStore) ListPostings(_ context.Context, _ db.Filters, limit, offset int) ([]db.Posting, int, error) {
	var out []db.Posting
	for _, p := range s.postings {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (s *fakeStore) CountPostings(_ context.Context, _ db.Filters) (int, error) {
	return len(s.postings), nil
}

func (s *fakeStore) Ping(_ context.Context) error { return s.pingErr }

type fakeIngestor struct {
	report   *ingestion.Report
	posting  *db.Posting
	oneErr   error
	lastSrc  string
	lastRecs []map[string]any
}

func (i *fakeIngestor) Ingest(_ context.Context, records []map[string]any, src string) *ingestion.Report {
	i.lastRecs = records
	i.lastSrc = src
	if i.report != nil {
		return i.report
	}
	return &ingestion.Report{Fetched: len(records), Ingested: len(records), Message: "ok"}
}

func (i *fakeIngestor) IngestOne(_ context.Context, raw map[string]any, src string) (*db.Posting, error) {
	i.lastSrc = src
	if i.oneErr != nil {
		return nil, i.oneErr
	}
	return i.posting, nil
}

type fakeRecommender struct {
	result *recommend.Result
	err    error
}

func (r *fakeRecommender) Recommend(_ context.Context, q recommend.Query) (*recommend.Result, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &recommend.Result{Query: q.Query, Recommendations: []recommend.Recommendation{}}, nil
}

type fakeFetcher struct {
	records    []map[string]any
	err        error
	configured bool
}

func (f *fakeFetcher) Fetch(_ context.Context, limit int) ([]map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeFetcher) IsConfigured() bool { return f.configured }

type fakeProvider struct {
	err error
}

func (p *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	return []float32{1}, nil
}
func (p *fakeProvider) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
func (p *fakeProvider) Dimensions() int { return 1 }
func (p *fakeProvider) Model() string   { return "fake" }
func (p *fakeProvider) Close() error    { return nil }

func newTestServer() (*Server, *fakeStore, *fakeIngestor) {
	store := &fakeStore{postings: map[uuid.UUID]*db.Posting{}}
	ingestor := &fakeIngestor{}
	srv := New(Config{
		Store:       store,
		Ingestor:    ingestor,
		Recommender: &fakeRecommender{},
		Fetcher:     &fakeFetcher{configured: true},
		Provider:    &fakeProvider{},
	})
	return srv, store, ingestor
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetPosting(t *testing.T) {
	srv, store, _ := newTestServer()
	id := uuid.New()
	store.postings[id] = &db.Posting{ID: id, Title: "Engineer"}

	req := httptest.NewRequest(http.MethodGet, "/postings/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	w := httptest.NewRecorder()
	srv.handleGetPosting(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Engineer", decodeBody(t, w)["title"])
}

func TestGetPostingInvalidID(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/postings/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()
	srv.handleGetPosting(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "invalid")
}

func TestGetPostingNotFound(t *testing.T) {
	srv, _, _ := newTestServer()
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/postings/"+id.String(), nil)
	req.SetPathValue("id", id.String())
	w := httptest.NewRecorder()
	srv.handleGetPosting(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPostingsEmpty(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/postings", nil)
	w := httptest.NewRecorder()
	srv.handleListPostings(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["total"])
	assert.NotNil(t, body["postings"])
}

func TestCountPostings(t *testing.T) {
	srv, store, _ := newTestServer()
	id := uuid.New()
	store.postings[id] = &db.Posting{ID: id}

	req := httptest.NewRequest(http.MethodGet, "/postings/count", nil)
	w := httptest.NewRecorder()
	srv.handleCountPostings(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["total"])
}

func TestCreatePosting(t *testing.T) {
	srv, _, ingestor := newTestServer()
	ingestor.posting = &db.Posting{ID: uuid.New(), Title: "Engineer"}

	body := bytes.NewBufferString(`{"title": "Engineer", "description": "desc"}`)
	req := httptest.NewRequest(http.MethodPost, "/postings", body)
	w := httptest.NewRecorder()
	srv.handleCreatePosting(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, db.SourceManual, ingestor.lastSrc)
}

func TestCreatePostingNormalizationFailure(t *testing.T) {
	srv, _, ingestor := newTestServer()
	ingestor.oneErr = &normalize.Error{Reason: "missing title"}

	body := bytes.NewBufferString(`{"description": "no title"}`)
	req := httptest.NewRequest(http.MethodPost, "/postings", body)
	w := httptest.NewRecorder()
	srv.handleCreatePosting(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "missing title")
}

func TestCreatePostingBadJSON(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/postings", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	srv.handleCreatePosting(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestBatch(t *testing.T) {
	srv, _, ingestor := newTestServer()

	body := bytes.NewBufferString(`{"records": [{"title": "A", "description": "d"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/ingest", body)
	w := httptest.NewRecorder()
	srv.handleIngest(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, db.SourceManual, ingestor.lastSrc)
	assert.Len(t, ingestor.lastRecs, 1)
}

func TestIngestEmptyRecords(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/ingest", bytes.NewBufferString(`{"records": []}`))
	w := httptest.NewRecorder()
	srv.handleIngest(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestRemote(t *testing.T) {
	srv, _, ingestor := newTestServer()
	srv.fetcher = &fakeFetcher{
		configured: true,
		records:    []map[string]any{{"title": "X", "description": "d"}},
	}

	req := httptest.NewRequest(http.MethodPost, "/ingest/remote", bytes.NewBufferString(`{"limit": 5}`))
	w := httptest.NewRecorder()
	srv.handleIngestRemote(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, db.SourceExternalAPI, ingestor.lastSrc)
}

func TestIngestRemoteFetchFailure(t *testing.T) {
	srv, _, _ := newTestServer()
	srv.fetcher = &fakeFetcher{
		configured: true,
		err:        &source.FetchError{URL: "https://api.test", StatusCode: 500},
	}

	req := httptest.NewRequest(http.MethodPost, "/ingest/remote", nil)
	w := httptest.NewRecorder()
	srv.handleIngestRemote(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestIngestRemoteUnconfigured(t *testing.T) {
	srv, _, _ := newTestServer()
	srv.fetcher = &fakeFetcher{configured: false}

	req := httptest.NewRequest(http.MethodPost, "/ingest/remote", nil)
	w := httptest.NewRecorder()
	srv.handleIngestRemote(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecommendations(t *testing.T) {
	srv, _, _ := newTestServer()

	body := bytes.NewBufferString(`{"query": "golang backend"}`)
	req := httptest.NewRequest(http.MethodPost, "/recommendations", body)
	w := httptest.NewRecorder()
	srv.handleRecommend(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "golang backend", decodeBody(t, w)["query"])
}

func TestRecommendationsValidationFailure(t *testing.T) {
	srv, _, _ := newTestServer()
	srv.recommender = &fakeRecommender{
		err: &recommend.ValidationError{Reason: "query text is required"},
	}

	req := httptest.NewRequest(http.MethodPost, "/recommendations", bytes.NewBufferString(`{"query": ""}`))
	w := httptest.NewRecorder()
	srv.handleRecommend(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthOK(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthDegraded(t *testing.T) {
	srv, store, _ := newTestServer()
	store.pingErr = errors.New("connection refused")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unreachable", body["datastore"])
	assert.Equal(t, "ok", body["embedder"])
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&normalize.Error{Reason: "x"}, http.StatusBadRequest},
		{&recommend.ValidationError{Reason: "x"}, http.StatusBadRequest},
		{&source.FetchError{URL: "u", StatusCode: 500}, http.StatusBadGateway},
		{&embedding.Error{Model: "m", Err: errors.New("y")}, http.StatusServiceUnavailable},
		{&db.StorageError{Op: "x", Err: errors.New("y")}, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "error %v", tt.err)
	}
}
