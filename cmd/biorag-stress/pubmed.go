// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biorag-stress/internal/corpus"
	"github.com/pdiddy/biorag-stress/internal/pubmed"
	"github.com/pdiddy/biorag-stress/internal/secrets"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch missing PubMed records into the local cache",
	Long: `Fetch reads a JSON list of PMIDs, skips the ones already cached, and
downloads the rest from NCBI E-utilities. Records are written to the SQLite
cache after every batch. Individual PMIDs that fail are reported and
skipped; the command fails at the end if any did.

NCBI requires a contact email (.secrets/ncbi-email or NCBI_EMAIL).`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.PubMed.Email == "" {
		return errors.New("NCBI email not configured: set .secrets/" + secrets.NCBIEmail + " or NCBI_EMAIL")
	}
	logger := newLogger(cfg)

	pmidsPath, _ := cmd.Flags().GetString("pmids")
	dbPath, _ := cmd.Flags().GetString("db")

	raw, err := os.ReadFile(pmidsPath)
	if err != nil {
		return fmt.Errorf("reading PMIDs: %w", err)
	}
	var pmids []string
	if err := json.Unmarshal(raw, &pmids); err != nil {
		return fmt.Errorf("parsing %s: %w", pmidsPath, err)
	}

	cache, err := pubmed.OpenCache(dbPath)
	if err != nil {
		return err
	}
	defer cache.Close()

	fetcher := pubmed.NewFetcher(cfg.PubMed, logger)
	summary, err := fetcher.FetchMissing(cmd.Context(), cache, pmids, cfg.PubMed.BatchSize, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\nFetch complete: %d cached, %d fetched, %d empty, %d failed\n",
		summary.Cached, summary.Fetched, summary.Empty, summary.Failed)
	if summary.HasFailures() {
		return fmt.Errorf("%d PMID(s) failed to fetch", summary.Failed)
	}
	return nil
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Write the cached PubMed records as a JSONL corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		out, _ := cmd.Flags().GetString("out")

		cache, err := pubmed.OpenCache(dbPath)
		if err != nil {
			return err
		}
		defer cache.Close()

		n, err := corpus.BuildFromCache(cmd.Context(), cache, out)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d documents to %s\n", n, out)
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("pmids", "data/gold_pmids.json", "JSON list of PMIDs to fetch")
	fetchCmd.Flags().String("db", "data/pubmed.sqlite", "SQLite cache path")

	corpusCmd.Flags().String("db", "data/pubmed.sqlite", "SQLite cache path")
	corpusCmd.Flags().String("out", "data/corpus.jsonl", "output JSONL corpus")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(corpusCmd)
}
