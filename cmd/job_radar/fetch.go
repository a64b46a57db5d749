package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/source"
)

var fetchLimit int

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch raw records from the external job API and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		client := source.NewClient(cfg.RapidAPIURL, cfg.RapidAPIKey, cfg.RapidAPIHost)
		limit := fetchLimit
		if limit <= 0 {
			limit = cfg.FetchLimit
		}

		records, err := client.Fetch(cmd.Context(), limit)
		if err != nil {
			return err
		}

		out, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "max records to fetch")
	rootCmd.AddCommand(fetchCmd)
}
