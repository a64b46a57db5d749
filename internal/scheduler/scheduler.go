// Package scheduler runs periodic fetch-and-ingest cycles against the
// external job API.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/ingestion"
	"github.com/jonathan/job-radar/internal/source"
)

// Scheduler drives recurring remote ingestion.
type Scheduler struct {
	cron     *cron.Cron
	client   *source.Client
	pipeline *ingestion.Pipeline
	interval int
	limit    int
}

// New builds a scheduler that fetches up to limit records every
// intervalHours hours.
func New(client *source.Client, pipeline *ingestion.Pipeline, intervalHours, limit int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		client:   client,
		pipeline: pipeline,
		interval: intervalHours,
		limit:    limit,
	}
}

// Start registers the cron entry and kicks off one immediate run so a
// fresh deployment has data before the first tick.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %dh", s.interval)
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return fmt.Errorf("failed to schedule ingestion: %w", err)
	}
	s.cron.Start()
	log.Printf("[scheduler] remote ingestion every %dh (limit %d)", s.interval, s.limit)

	go s.runOnce()
	return nil
}

// Stop halts the cron loop and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("[scheduler] stopped")
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	log.Printf("[scheduler] starting remote ingestion cycle")
	records, err := s.client.Fetch(ctx, s.limit)
	if err != nil {
		log.Printf("[scheduler] fetch failed: %v", err)
		return
	}
	s.pipeline.Ingest(ctx, records, db.SourceExternalAPI)
}
