// Package ingestion runs raw posting records through the
// normalize-embed-store pipeline, isolating failures per record so one bad
// record never aborts a batch.
package ingestion

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/embedding"
	"github.com/jonathan/job-radar/internal/normalize"
)

// Store is the slice of the storage layer the pipeline writes to.
type Store interface {
	CreatePosting(ctx context.Context, draft *db.PostingDraft, vec []float32, model string) (*db.Posting, bool, error)
}

// Pipeline ingests raw records.
type Pipeline struct {
	store    Store
	embedder embedding.Provider
}

func New(store Store, embedder embedding.Provider) *Pipeline {
	return &Pipeline{store: store, embedder: embedder}
}

// Ingest processes records sequentially. Each record either becomes a
// stored posting, is skipped as a URL duplicate, or is reported as failed
// with its reason; the batch always runs to completion.
func (p *Pipeline) Ingest(ctx context.Context, records []map[string]any, source string) *Report {
	report := &Report{Fetched: len(records)}

	for i, raw := range records {
		draft, err := normalize.Normalize(raw)
		if err != nil {
			report.addError(fmt.Sprintf("%s: %v", recordKey(raw, i), err))
			continue
		}
		draft.Source = source

		vec, err := p.embedder.Embed(ctx, draft.EmbeddingText())
		if err != nil {
			report.addError(fmt.Sprintf("%s: %v", recordKey(raw, i), err))
			continue
		}

		_, created, err := p.store.CreatePosting(ctx, draft, vec, p.embedder.Model())
		if err != nil {
			report.addError(fmt.Sprintf("%s: %v", recordKey(raw, i), err))
			continue
		}
		if !created {
			report.Duplicates++
			continue
		}
		report.Ingested++
	}

	report.finalize()
	log.Printf("[ingest] %s", report.Message)
	return report
}

// IngestOne runs a single record through the pipeline and returns the
// stored posting. Unlike Ingest, errors propagate to the caller.
func (p *Pipeline) IngestOne(ctx context.Context, raw map[string]any, source string) (*db.Posting, error) {
	draft, err := normalize.Normalize(raw)
	if err != nil {
		return nil, err
	}
	draft.Source = source

	vec, err := p.embedder.Embed(ctx, draft.EmbeddingText())
	if err != nil {
		return nil, err
	}

	posting, created, err := p.store.CreatePosting(ctx, draft, vec, p.embedder.Model())
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, &normalize.Error{Reason: "a posting with this URL already exists"}
	}
	return posting, nil
}

// recordKey identifies a record in error messages: its URL when present,
// else its title, else its position in the batch.
func recordKey(raw map[string]any, index int) string {
	for _, key := range []string{"url", "job_url", "apply_link", "link", "redirect_url"} {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	for _, key := range []string{"title", "job_title", "position", "name"} {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("record %d", index+1)
}
