// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner drives questions through retrieval, evidence selection,
// and an optional stressor, producing one prediction per question.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pdiddy/biorag-stress/internal/pico"
	"github.com/pdiddy/biorag-stress/internal/retrieval"
	"github.com/pdiddy/biorag-stress/internal/snippets"
	"github.com/pdiddy/biorag-stress/internal/stress"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// Runner holds the read-only state shared by every question of a run.
// Each call builds its own vector spaces and random source, so a Runner is
// safe for concurrent use.
type Runner struct {
	Corpus    []types.Document
	Index     *retrieval.BM25
	Config    types.PipelineConfig
	Extractor pico.Extractor
	Judge     stress.Contradictor
	Logger    *slog.Logger
}

// New indexes corpus and returns a Runner. A nil extractor defaults to the
// heuristic; a nil judge leaves conflict candidates unconfirmed.
func New(corpus []types.Document, cfg types.PipelineConfig, extractor pico.Extractor, judge stress.Contradictor, logger *slog.Logger) *Runner {
	if extractor == nil {
		extractor = pico.HeuristicExtractor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Corpus:    corpus,
		Index:     retrieval.NewBM25(corpus, cfg.Retrieval.K1, cfg.Retrieval.B),
		Config:    cfg,
		Extractor: extractor,
		Judge:     judge,
		Logger:    logger,
	}
}

// QuestionFunc produces the prediction for one question.
type QuestionFunc func(ctx context.Context, q types.Question) (types.Prediction, error)

func (r *Runner) retrieve(q types.Question) []types.Document {
	return r.Index.Rank(q.Body, r.Config.Retrieval.TopK)
}

func (r *Runner) evidence(q types.Question, docs []types.Document) []types.Snippet {
	return snippets.Evidence(q.Body, docs, r.Config.Snippets)
}

// Baseline retrieves documents and selects evidence without perturbation.
func (r *Runner) Baseline(ctx context.Context, q types.Question) (types.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return types.Prediction{}, err
	}
	docs := r.retrieve(q)
	return types.Prediction{
		QuestionID:     q.ID,
		RetrievedPMIDs: types.PMIDs(docs),
		Snippets:       r.evidence(q, docs),
	}, nil
}

// Stress runs the pipeline for q with the given stressor applied.
func (r *Runner) Stress(ctx context.Context, kind stress.Kind, q types.Question) (types.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return types.Prediction{}, err
	}
	cfg := r.Config.Stressors

	if kind == stress.Noise {
		docs := stress.InjectNoise(r.retrieve(q), r.Corpus, cfg.Noise.DistractorK, stress.NewRand(cfg.Noise.Seed))
		return types.Prediction{
			QuestionID:     q.ID,
			RetrievedPMIDs: types.PMIDs(docs),
			Snippets:       r.evidence(q, docs),
		}, nil
	}

	pred, err := r.Baseline(ctx, q)
	if err != nil {
		return types.Prediction{}, err
	}

	switch kind {
	case stress.Conflict:
		candidates := stress.DetectConflicts(pred.Snippets, cfg.Conflict.SimilarityThreshold)
		var judge stress.Contradictor
		if cfg.Conflict.LLMJudge {
			judge = r.Judge
		}
		pred.ConflictPairs = stress.ConfirmConflicts(ctx, candidates, judge, r.Logger)
		isConflict := len(pred.ConflictPairs) > 0
		pred.IsConflict = &isConflict

	case stress.Unanswerable:
		pred.Snippets = stress.RemoveSupporting(pred.Snippets, cfg.Unanswerable.RemoveTopN)
		abstain := types.AbstainAnswer
		pred.PredictedExact = &abstain
		pred.IsUnanswerable = true

	case stress.PICOMismatch:
		res := stress.ScorePICOMismatch(ctx, q.Body, pred.Snippets, r.Extractor, cfg.PICOMismatch.MismatchThreshold)
		pred.PICOMismatchScore = &res.Mean
		pred.IsPICOMismatch = &res.Flagged

	default:
		return types.Prediction{}, fmt.Errorf("unknown stressor %q", kind)
	}
	return pred, nil
}

// StressFunc adapts Stress for one stressor to a QuestionFunc.
func (r *Runner) StressFunc(kind stress.Kind) QuestionFunc {
	return func(ctx context.Context, q types.Question) (types.Prediction, error) {
		return r.Stress(ctx, kind, q)
	}
}

// Enabled reports whether kind is switched on in the configuration.
func (r *Runner) Enabled(kind stress.Kind) bool {
	s := r.Config.Stressors
	switch kind {
	case stress.Noise:
		return s.Noise.Enabled
	case stress.Conflict:
		return s.Conflict.Enabled
	case stress.Unanswerable:
		return s.Unanswerable.Enabled
	case stress.PICOMismatch:
		return s.PICOMismatch.Enabled
	}
	return false
}
