package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/ingestion"
	"github.com/jonathan/job-radar/internal/source"
)

var (
	ingestFile   string
	ingestRemote bool
	ingestLimit  int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest raw posting records from a JSON file or the external API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestFile == "" && !ingestRemote {
			return fmt.Errorf("either --file or --remote is required")
		}

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

		var records []map[string]any
		src := db.SourceManual
		if ingestRemote {
			client := source.NewClient(cfg.RapidAPIURL, cfg.RapidAPIKey, cfg.RapidAPIHost)
			limit := ingestLimit
			if limit <= 0 {
				limit = cfg.FetchLimit
			}
			if records, err = client.Fetch(ctx, limit); err != nil {
				return err
			}
			src = db.SourceExternalAPI
		} else {
			raw, err := os.ReadFile(ingestFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", ingestFile, err)
			}
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("%s is not a JSON array of records: %w", ingestFile, err)
			}
		}

		report := pipeline.Ingest(ctx, records, src)
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to a JSON array of raw records")
	ingestCmd.Flags().BoolVar(&ingestRemote, "remote", false, "fetch records from the external job API")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "max records to fetch with --remote")
	rootCmd.AddCommand(ingestCmd)
}
