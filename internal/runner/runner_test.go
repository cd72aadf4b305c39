// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biorag-stress/internal/stress"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCorpus() []types.Document {
	docs := []types.Document{
		{PMID: "1", Text: "Aspirin reduces headache pain."},
		{PMID: "2", Text: "Aspirin has no effect on headache pain."},
	}
	for i := 3; i <= 10; i++ {
		docs = append(docs, types.Document{
			PMID: fmt.Sprintf("%d", i),
			Text: fmt.Sprintf("Unrelated finding number %d about kidney function.", i),
		})
	}
	return docs
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	cfg := types.DefaultPipelineConfig()
	cfg.Retrieval.TopK = 2
	cfg.Stressors.Noise.DistractorK = 2
	return New(testCorpus(), cfg, nil, nil, quietLogger())
}

var aspirinQuestion = types.Question{ID: "q1", Body: "does aspirin help headache"}

func assertSnippetsRetrieved(t *testing.T, p types.Prediction) {
	t.Helper()
	for _, s := range p.Snippets {
		assert.Contains(t, p.RetrievedPMIDs, s.PMID)
	}
}

func TestBaseline(t *testing.T) {
	r := testRunner(t)
	p, err := r.Baseline(context.Background(), aspirinQuestion)
	require.NoError(t, err)
	assert.Equal(t, "q1", p.QuestionID)
	assert.Equal(t, []string{"1", "2"}, p.RetrievedPMIDs)
	assert.Len(t, p.Snippets, 2)
	assert.Nil(t, p.IsConflict)
	assertSnippetsRetrieved(t, p)
}

func TestStressNoise(t *testing.T) {
	r := testRunner(t)
	p, err := r.Stress(context.Background(), stress.Noise, aspirinQuestion)
	require.NoError(t, err)
	require.Len(t, p.RetrievedPMIDs, 4)
	assert.Equal(t, []string{"1", "2"}, p.RetrievedPMIDs[:2])
	assertSnippetsRetrieved(t, p)

	again, err := r.Stress(context.Background(), stress.Noise, aspirinQuestion)
	require.NoError(t, err)
	assert.Equal(t, p.RetrievedPMIDs, again.RetrievedPMIDs)
}

func TestStressConflict(t *testing.T) {
	r := testRunner(t)
	p, err := r.Stress(context.Background(), stress.Conflict, aspirinQuestion)
	require.NoError(t, err)
	require.NotNil(t, p.IsConflict)
	assert.True(t, *p.IsConflict)
	require.Len(t, p.ConflictPairs, 1)
	assert.NotEqual(t, p.ConflictPairs[0].A.PMID, p.ConflictPairs[0].B.PMID)
}

type rejectingJudge struct{}

func (rejectingJudge) Contradicts(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestStressConflictWithJudge(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Retrieval.TopK = 2
	cfg.Stressors.Conflict.LLMJudge = true
	r := New(testCorpus(), cfg, nil, rejectingJudge{}, quietLogger())

	p, err := r.Stress(context.Background(), stress.Conflict, aspirinQuestion)
	require.NoError(t, err)
	assert.False(t, *p.IsConflict)
	assert.Empty(t, p.ConflictPairs)
}

func TestStressUnanswerable(t *testing.T) {
	r := testRunner(t)
	p, err := r.Stress(context.Background(), stress.Unanswerable, aspirinQuestion)
	require.NoError(t, err)
	assert.True(t, p.IsUnanswerable)
	require.NotNil(t, p.PredictedExact)
	assert.Equal(t, types.AbstainAnswer, *p.PredictedExact)
	assert.Empty(t, p.Snippets)
	assert.Equal(t, []string{"1", "2"}, p.RetrievedPMIDs)
}

func TestStressPICOMismatch(t *testing.T) {
	r := testRunner(t)
	p, err := r.Stress(context.Background(), stress.PICOMismatch, aspirinQuestion)
	require.NoError(t, err)
	require.NotNil(t, p.PICOMismatchScore)
	require.NotNil(t, p.IsPICOMismatch)
	assert.GreaterOrEqual(t, *p.PICOMismatchScore, 0.0)
	assert.LessOrEqual(t, *p.PICOMismatchScore, 1.0)
}

func TestStressUnknownKind(t *testing.T) {
	_, err := testRunner(t).Stress(context.Background(), stress.Kind("bogus"), aspirinQuestion)
	assert.Error(t, err)
}

func TestEnabled(t *testing.T) {
	r := testRunner(t)
	for _, k := range stress.Kinds {
		assert.True(t, r.Enabled(k), k)
	}
	r.Config.Stressors.Noise.Enabled = false
	assert.False(t, r.Enabled(stress.Noise))
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	questions := []types.Question{{ID: "ok1"}, {ID: "err"}, {ID: "panic"}, {ID: "ok2"}}
	fn := func(_ context.Context, q types.Question) (types.Prediction, error) {
		switch q.ID {
		case "err":
			return types.Prediction{}, errors.New("judge exploded")
		case "panic":
			panic("poisoned input")
		}
		return types.Prediction{QuestionID: q.ID, RetrievedPMIDs: []string{"1"}}, nil
	}

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			var out bytes.Buffer
			preds, summary := RunBatch(context.Background(), questions, fn, workers, &out, quietLogger())

			require.Len(t, preds, 4)
			assert.Equal(t, []string{"ok1", "err", "panic", "ok2"},
				[]string{preds[0].QuestionID, preds[1].QuestionID, preds[2].QuestionID, preds[3].QuestionID})
			assert.Equal(t, "judge exploded", preds[1].Error)
			assert.Contains(t, preds[2].Error, "poisoned input")
			assert.Empty(t, preds[3].Error)
			assert.Equal(t, BatchSummary{Succeeded: 2, Failed: 2}, summary)
			assert.True(t, summary.HasFailures())
			assert.Equal(t, 4, summary.Total())
			assert.Contains(t, out.String(), "failed  err: judge exploded")
		})
	}
}

func TestRunBatchParallelMatchesSequential(t *testing.T) {
	r := testRunner(t)
	questions := []types.Question{
		aspirinQuestion,
		{ID: "q2", Body: "kidney function finding"},
		{ID: "q3", Body: "headache pain"},
	}
	seq, _ := RunBatch(context.Background(), questions, r.StressFunc(stress.Noise), 1, io.Discard, quietLogger())
	par, _ := RunBatch(context.Background(), questions, r.StressFunc(stress.Noise), 4, io.Discard, quietLogger())
	assert.Equal(t, seq, par)
}

func TestNewRunID(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "baseline_20260304_050607", NewRunID("baseline", now))
}

func TestWritePredictions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs", "baseline_x")
	path, err := WritePredictions(dir, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []types.Prediction
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Empty(t, got)
	assert.Equal(t, "[]", string(data))
}
