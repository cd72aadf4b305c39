// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/biorag-stress/internal/corpus"
	"github.com/pdiddy/biorag-stress/internal/dataset"
	"github.com/pdiddy/biorag-stress/internal/judge"
	"github.com/pdiddy/biorag-stress/internal/pico"
	"github.com/pdiddy/biorag-stress/internal/runner"
	"github.com/pdiddy/biorag-stress/internal/stress"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Run retrieval and evidence selection without stressors",
	Long: `Baseline retrieves the top documents for every question with BM25,
selects evidence sentences, and writes predictions.json into a new run
directory under paths.runs_dir.`,
	RunE: runBaseline,
}

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Run every enabled stressor, one run directory each",
	Long: `Stress runs the pipeline once per enabled stressor (noise, conflict,
unanswerable, pico_mismatch) and writes each run to its own directory
named <stressor>_<timestamp>. Use --only to run a single stressor whether
or not it is enabled in the configuration.

The remote judge is used when an OpenAI API key is configured and
stressors.conflict.llm_judge or pico.llm_enabled is set. Judge failures
fall back to heuristics and are logged as warnings.`,
	RunE: runStress,
}

func runBaseline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	questions, r, err := prepareRun(cmd, cfg, logger)
	if err != nil {
		return err
	}
	runID, _ := cmd.Flags().GetString("run-id")
	if runID == "" {
		runID = runner.NewRunID("baseline", time.Now())
	}
	return executeRun(cmd.Context(), questions, r.Baseline, cfg, runID, os.Stdout, logger)
}

func runStress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	only, _ := cmd.Flags().GetString("only")
	kinds, err := selectKinds(cfg, only)
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		fmt.Println("No stressors enabled.")
		return nil
	}

	questions, r, err := prepareRun(cmd, cfg, logger)
	if err != nil {
		return err
	}

	var failed []string
	for _, kind := range kinds {
		runID := runner.NewRunID(string(kind), time.Now())
		if err := executeRun(cmd.Context(), questions, r.StressFunc(kind), cfg, runID, os.Stdout, logger); err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			failed = append(failed, fmt.Sprintf("%s: %v", kind, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d stress run(s) had failures: %v", len(failed), failed)
	}
	return nil
}

// selectKinds returns the stressors to run: just only when set, otherwise
// every stressor enabled in cfg, in canonical order.
func selectKinds(cfg types.PipelineConfig, only string) ([]stress.Kind, error) {
	if only != "" {
		kind, err := stress.ParseKind(only)
		if err != nil {
			return nil, err
		}
		return []stress.Kind{kind}, nil
	}
	r := runner.Runner{Config: cfg}
	var kinds []stress.Kind
	for _, kind := range stress.Kinds {
		if r.Enabled(kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// prepareRun loads the dataset and corpus named by the command flags and
// builds the runner.
func prepareRun(cmd *cobra.Command, cfg types.PipelineConfig, logger *slog.Logger) ([]types.Question, *runner.Runner, error) {
	datasetPath, _ := cmd.Flags().GetString("dataset")
	corpusPath, _ := cmd.Flags().GetString("corpus")

	questions, err := dataset.Load(datasetPath)
	if err != nil {
		return nil, nil, err
	}
	docs, err := corpus.Load(corpusPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("loaded inputs", "questions", len(questions), "documents", len(docs))

	r, err := newRunner(docs, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return questions, r, nil
}

// newRunner wires the PICO extractor and contradiction judge. Both use the
// remote judge only when an API key is configured.
func newRunner(docs []types.Document, cfg types.PipelineConfig, logger *slog.Logger) (*runner.Runner, error) {
	var completer judge.Completer
	var contradictor stress.Contradictor
	if cfg.Judge.APIKey != "" {
		client, err := judge.New(judge.Config{
			APIKey:  cfg.Judge.APIKey,
			BaseURL: cfg.Judge.BaseURL,
			Model:   cfg.Judge.Model,
			Timeout: cfg.Judge.Timeout,
		})
		if err != nil {
			return nil, err
		}
		completer = client
		contradictor = &judge.ContradictionJudge{Completer: client}
	} else if cfg.Stressors.Conflict.LLMJudge || cfg.PICO.LLMEnabled {
		logger.Warn("remote judge requested but no API key configured, using heuristics")
	}
	extractor := pico.NewExtractor(completer, cfg.PICO.LLMEnabled, logger)
	return runner.New(docs, cfg, extractor, contradictor, logger), nil
}

// executeRun runs fn over questions and writes the predictions into
// runs_dir/runID. It returns an error when any question failed.
func executeRun(ctx context.Context, questions []types.Question, fn runner.QuestionFunc, cfg types.PipelineConfig, runID string, w io.Writer, logger *slog.Logger) error {
	fmt.Fprintf(w, "Run %s: %d questions\n", runID, len(questions))
	preds, summary := runner.RunBatch(ctx, questions, fn, cfg.Workers, w, logger)

	dir := filepath.Join(cfg.Paths.RunsDir, runID)
	path, err := runner.WritePredictions(dir, preds)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nRun %s complete: %d succeeded, %d failed, saved to %s\n",
		runID, summary.Succeeded, summary.Failed, path)
	if summary.HasFailures() {
		return fmt.Errorf("%d question(s) failed in %s", summary.Failed, runID)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{baselineCmd, stressCmd} {
		c.Flags().String("dataset", "", "path to BioASQ-style JSON dataset")
		c.Flags().String("corpus", "data/corpus.jsonl", "JSONL corpus")
		_ = c.MarkFlagRequired("dataset")
	}
	baselineCmd.Flags().String("run-id", "", "run directory name (default baseline_<timestamp>)")
	stressCmd.Flags().String("only", "", "run a single stressor: noise, conflict, unanswerable, or pico_mismatch")

	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(stressCmd)
}
