package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-radar/internal/db"
)

type fakeStore struct {
	calls     int
	seenURLs  map[string]bool
	failAfter int // fail calls numbered > failAfter; 0 disables
}

func (s *fakeStore) CreatePosting(_ context.Context, draft *db.PostingDraft, vec []float32, model string) (*db.Posting, bool, error) {
	s.calls++
	if s.failAfter > 0 && s.calls > s.failAfter {
		return nil, false, errors.New("connection lost")
	}
	if draft.URL != "" {
		if s.seenURLs == nil {
			s.seenURLs = map[string]bool{}
		}
		if s.seenURLs[draft.URL] {
			return nil, false, nil
		}
		s.seenURLs[draft.URL] = true
	}
	return &db.Posting{Title: draft.Title, EmbeddingModel: model}, true, nil
}

type fakeProvider struct {
	calls    int
	failText string
}

func (p *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.calls++
	if p.failText != "" && text == p.failText {
		return nil, errors.New("model unavailable")
	}
	return []float32{1, 0, 0}, nil
}

func (p *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

func (p *fakeProvider) Dimensions() int { return 3 }
func (p *fakeProvider) Model() string   { return "fake-embedder" }
func (p *fakeProvider) Close() error    { return nil }

func record(title string) map[string]any {
	return map[string]any{"title": title, "description": "some role"}
}

func TestIngestCountsAndIsolation(t *testing.T) {
	store := &fakeStore{}
	provider := &fakeProvider{}
	p := New(store, provider)

	records := []map[string]any{
		record("Engineer A"),
		{"description": "no title here"}, // normalization failure
		record("Engineer B"),
	}

	report := p.Ingest(context.Background(), records, db.SourceManual)

	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Ingested)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Duplicates)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "missing title")
	// The failed record never reached the embedder or the store.
	assert.Equal(t, 2, provider.calls)
	assert.Equal(t, 2, store.calls)
}

func TestIngestDuplicatesCountedSeparately(t *testing.T) {
	store := &fakeStore{}
	p := New(store, &fakeProvider{})

	dup := map[string]any{
		"title":       "Engineer",
		"description": "role",
		"url":         "https://example.com/jobs/1",
	}
	report := p.Ingest(context.Background(), []map[string]any{dup, dup}, db.SourceExternalAPI)

	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 0, report.Failed)
	assert.Empty(t, report.Errors)
}

func TestIngestEmbeddingFailureIsolated(t *testing.T) {
	store := &fakeStore{}
	provider := &fakeProvider{failText: "Broken role broken"}
	p := New(store, provider)

	records := []map[string]any{
		{"title": "Broken role", "description": "broken"},
		record("Fine role"),
	}
	report := p.Ingest(context.Background(), records, db.SourceManual)

	assert.Equal(t, 1, report.Ingested)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Errors[0], "model unavailable")
	// The record that failed embedding never reached the store.
	assert.Equal(t, 1, store.calls)
}

func TestIngestErrorCap(t *testing.T) {
	p := New(&fakeStore{}, &fakeProvider{})

	var records []map[string]any
	for i := 0; i < 40; i++ {
		records = append(records, map[string]any{"description": "no title"})
	}
	report := p.Ingest(context.Background(), records, db.SourceManual)

	assert.Equal(t, 40, report.Failed)
	require.Len(t, report.Errors, maxReportErrors+1)
	assert.Equal(t, fmt.Sprintf("...and %d more errors", 40-maxReportErrors),
		report.Errors[maxReportErrors])
}

func TestIngestEmptyBatch(t *testing.T) {
	p := New(&fakeStore{}, &fakeProvider{})
	report := p.Ingest(context.Background(), nil, db.SourceManual)

	assert.Equal(t, 0, report.Fetched)
	assert.Equal(t, 0, report.Ingested)
	assert.NotEmpty(t, report.Message)
}

func TestIngestOne(t *testing.T) {
	store := &fakeStore{}
	p := New(store, &fakeProvider{})

	posting, err := p.IngestOne(context.Background(), record("Solo"), db.SourceManual)
	require.NoError(t, err)
	assert.Equal(t, "Solo", posting.Title)
	assert.Equal(t, "fake-embedder", posting.EmbeddingModel)

	_, err = p.IngestOne(context.Background(), map[string]any{"title": "X"}, db.SourceManual)
	assert.Error(t, err)
}

func TestRecordKey(t *testing.T) {
	assert.Equal(t, "https://x.test/1", recordKey(map[string]any{"url": "https://x.test/1", "title": "T"}, 0))
	assert.Equal(t, "T", recordKey(map[string]any{"title": "T"}, 0))
	assert.Equal(t, "record 3", recordKey(map[string]any{}, 2))
}
