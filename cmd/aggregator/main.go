package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/job-aggregator/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "aggregator",
	Short:        "Job-board scraping and normalization pipeline",
	Long:         "Polls configured job boards, normalizes their postings, filters and dedupes them, and upserts them into a shared store.",
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if _, err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
