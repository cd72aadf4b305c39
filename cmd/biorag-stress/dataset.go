// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biorag-stress/internal/dataset"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that a BioASQ-style dataset parses and has questions",
	Long: `Validate parses the dataset and reports how many questions it holds.
Questions without an id or body are counted and logged as a warning. An
empty or unrecognized dataset is an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		path, _ := cmd.Flags().GetString("dataset")
		questions, err := dataset.Load(path)
		if err != nil {
			return err
		}
		report, err := dataset.Validate(questions)
		if err != nil {
			return err
		}
		if report.MissingIDOrBody > 0 {
			logger.Warn("questions missing id/body", "count", report.MissingIDOrBody)
		}
		fmt.Printf("Dataset looks valid with %d questions\n", report.Questions)
		return nil
	},
}

var goldPMIDsCmd = &cobra.Command{
	Use:   "gold-pmids",
	Short: "Write the sorted unique PMIDs referenced by the gold data",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dataset")
		out, _ := cmd.Flags().GetString("out")

		questions, err := dataset.Load(path)
		if err != nil {
			return err
		}
		pmids := dataset.GoldPMIDs(questions)
		if err := writeJSONFile(out, pmids); err != nil {
			return err
		}
		fmt.Printf("Saved %d PMIDs to %s\n", len(pmids), out)
		return nil
	},
}

// writeJSONFile writes v as indented JSON, creating parent directories.
func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func init() {
	validateCmd.Flags().String("dataset", "", "path to BioASQ-style JSON dataset")
	_ = validateCmd.MarkFlagRequired("dataset")

	goldPMIDsCmd.Flags().String("dataset", "", "path to BioASQ-style JSON dataset")
	goldPMIDsCmd.Flags().String("out", "data/gold_pmids.json", "output JSON list of PMIDs")
	_ = goldPMIDsCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(goldPMIDsCmd)
}
