// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/pdiddy/biorag-stress/pkg/types"
)

// PredictionsFile is the file written into every run directory.
const PredictionsFile = "predictions.json"

// BatchSummary holds counts from a batch run.
type BatchSummary struct {
	Succeeded int
	Failed    int
}

// Total returns the number of questions processed.
func (s BatchSummary) Total() int {
	return s.Succeeded + s.Failed
}

// HasFailures reports whether any question failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// RunBatch applies fn to every question and returns predictions in input
// order. A question whose fn returns an error or panics yields a prediction
// carrying only its ID and the error; the batch continues. With workers > 1
// questions are processed concurrently.
func RunBatch(ctx context.Context, questions []types.Question, fn QuestionFunc, workers int, w io.Writer, logger *slog.Logger) ([]types.Prediction, BatchSummary) {
	if logger == nil {
		logger = slog.Default()
	}
	var mu sync.Mutex
	var summary BatchSummary

	process := func(q *types.Question) types.Prediction {
		pred := isolate(ctx, *q, fn)
		mu.Lock()
		defer mu.Unlock()
		if pred.Error != "" {
			logger.Error("question failed", "question_id", q.ID, "error", pred.Error)
			fmt.Fprintf(w, "failed  %s: %s\n", q.ID, pred.Error)
			summary.Failed++
		} else {
			fmt.Fprintf(w, "question %s: %d docs, %d snippets\n", q.ID, len(pred.RetrievedPMIDs), len(pred.Snippets))
			summary.Succeeded++
		}
		return pred
	}

	var preds []types.Prediction
	if workers > 1 {
		mapper := iter.Mapper[types.Question, types.Prediction]{MaxGoroutines: workers}
		preds = mapper.Map(questions, process)
	} else {
		preds = make([]types.Prediction, len(questions))
		for i := range questions {
			preds[i] = process(&questions[i])
		}
	}
	return preds, summary
}

// isolate runs fn for q and converts errors and panics into a failed
// prediction.
func isolate(ctx context.Context, q types.Question, fn QuestionFunc) (pred types.Prediction) {
	defer func() {
		if r := recover(); r != nil {
			pred = types.Prediction{QuestionID: q.ID, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	p, err := fn(ctx, q)
	if err != nil {
		return types.Prediction{QuestionID: q.ID, Error: err.Error()}
	}
	return p
}

// NewRunID returns prefix_YYYYMMDD_HHMMSS for now in UTC.
func NewRunID(prefix string, now time.Time) string {
	return prefix + "_" + now.UTC().Format("20060102_150405")
}

// WritePredictions creates dir and writes preds to its predictions file.
func WritePredictions(dir string, preds []types.Prediction) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	if preds == nil {
		preds = []types.Prediction{}
	}
	data, err := json.MarshalIndent(preds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling predictions: %w", err)
	}
	path := filepath.Join(dir, PredictionsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing predictions: %w", err)
	}
	return path, nil
}
