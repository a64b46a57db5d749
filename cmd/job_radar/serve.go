package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/embedding"
	"github.com/jonathan/job-radar/internal/ingestion"
	"github.com/jonathan/job-radar/internal/recommend"
	"github.com/jonathan/job-radar/internal/scheduler"
	"github.com/jonathan/job-radar/internal/server"
	"github.com/jonathan/job-radar/internal/server/ratelimit"
	"github.com/jonathan/job-radar/internal/source"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := db.Connect(ctx, cfg.DatabaseURL, cfg.EmbedDimensions)
		if err != nil {
			return err
		}
		defer store.Close()

		provider, err := buildProvider(ctx, cfg)
		if err != nil {
			return err
		}
		defer provider.Close()

		pipeline := ingestion.New(store, provider)
		engine := recommend.New(store, provider)
		client := source.NewClient(cfg.RapidAPIURL, cfg.RapidAPIKey, cfg.RapidAPIHost)

		limiter := ratelimit.NewLimiter(ratelimit.LoadConfig())
		defer limiter.Stop()

		if cfg.FetchIntervalHours > 0 {
			if !client.IsConfigured() {
				return fmt.Errorf("FETCH_INTERVAL_HOURS is set but the external job API is not configured")
			}
			sched := scheduler.New(client, pipeline, cfg.FetchIntervalHours, cfg.FetchLimit)
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}

		srv := server.New(server.Config{
			Store:       store,
			Ingestor:    pipeline,
			Recommender: engine,
			Fetcher:     client,
			Provider:    provider,
			Limiter:     limiter,
			Port:        cfg.Port,
			FetchLimit:  cfg.FetchLimit,
		})
		return srv.Start()
	},
}

// buildProvider creates the Gemini provider, wrapped with the Redis cache
// when one is configured.
func buildProvider(ctx context.Context, cfg *config.Config) (embedding.Provider, error) {
	gemini, err := embedding.NewGemini(ctx, cfg.GeminiAPIKey, cfg.EmbedModel, cfg.EmbedDimensions)
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return gemini, nil
	}
	cached, err := embedding.NewRedisCache(ctx, cfg.RedisURL, gemini)
	if err != nil {
		gemini.Close()
		return nil, err
	}
	log.Println("[job_radar] embedding cache enabled")
	return cached, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
