package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_radar",
	Short: "Job posting store with embedding-based recommendations",
	Long: `job_radar ingests job and internship postings from manual submissions or
an external job API, embeds them with a sentence embedding model, and serves
similarity-ranked recommendations over HTTP.`,
}

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("[job_radar] loaded configuration from .env")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
