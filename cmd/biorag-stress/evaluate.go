// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biorag-stress/internal/dataset"
	"github.com/pdiddy/biorag-stress/internal/evaluate"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score every run directory against the gold dataset",
	Long: `Evaluate walks the runs directory, scores each run's predictions.json
(recall@10, snippet F1, groundedness, abstention accuracy), and writes
report.json and report.csv into each run plus an aggregate pair into the
runs directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		datasetPath, _ := cmd.Flags().GetString("dataset")
		runsDir, _ := cmd.Flags().GetString("runs-dir")
		if runsDir == "" {
			runsDir = cfg.Paths.RunsDir
		}

		questions, err := dataset.Load(datasetPath)
		if err != nil {
			return err
		}
		summaries, err := evaluate.EvaluateRuns(questions, runsDir, os.Stdout)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			fmt.Printf("%-32s recall@10=%.3f snippet_f1=%.3f groundedness=%.3f abstain=%.3f\n",
				s.RunID, s.Recall, s.SnippetF1, s.Groundedness, s.AbstainAccuracy)
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().String("dataset", "", "path to BioASQ-style JSON dataset")
	evaluateCmd.Flags().String("runs-dir", "", "runs directory (default paths.runs_dir)")
	_ = evaluateCmd.MarkFlagRequired("dataset")

	rootCmd.AddCommand(evaluateCmd)
}
