// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/biorag-stress/pkg/types"
)

// File names inside a run directory and its parent.
const (
	PredictionsFile = "predictions.json"
	ReportJSONFile  = "report.json"
	ReportCSVFile   = "report.csv"
)

// Summary holds the dataset-level metrics of one run.
type Summary struct {
	RunID           string  `json:"run_id,omitempty"`
	Questions       int     `json:"questions"`
	Failures        int     `json:"failures"`
	Recall          float64 `json:"recall@10"`
	SnippetF1       float64 `json:"snippet_f1"`
	Groundedness    float64 `json:"groundedness"`
	AbstainAccuracy float64 `json:"abstain_accuracy"`
}

// QuestionResult holds the metrics of one question in one run.
type QuestionResult struct {
	QuestionID      string  `json:"question_id"`
	Recall          float64 `json:"recall@10"`
	SnippetF1       float64 `json:"snippet_f1"`
	Groundedness    float64 `json:"groundedness"`
	AbstainAccuracy float64 `json:"abstain_accuracy"`
	Error           string  `json:"error,omitempty"`
}

// EvaluateQuestion scores one prediction against its gold question.
func EvaluateQuestion(q types.Question, p types.Prediction) QuestionResult {
	exact := ""
	if p.PredictedExact != nil {
		exact = *p.PredictedExact
	}
	return QuestionResult{
		QuestionID:      q.ID,
		Recall:          RecallAtK(GoldPMIDs(q), p.RetrievedPMIDs, RecallK),
		SnippetF1:       SnippetF1(q.GoldTexts(), types.Sentences(p.Snippets)),
		Groundedness:    Groundedness(p.AnswerTexts(), types.Sentences(p.Snippets)),
		AbstainAccuracy: AbstentionCorrect(q.Unanswerable || p.IsUnanswerable, exact),
		Error:           p.Error,
	}
}

// EvaluateRun scores every dataset question. Questions without a prediction
// are scored against an empty record. The summary is the mean of each
// metric over the dataset.
func EvaluateRun(dataset []types.Question, predictions []types.Prediction) (Summary, []QuestionResult) {
	byID := make(map[string]types.Prediction, len(predictions))
	for _, p := range predictions {
		byID[p.QuestionID] = p
	}

	results := make([]QuestionResult, 0, len(dataset))
	summary := Summary{Questions: len(dataset)}
	for _, q := range dataset {
		r := EvaluateQuestion(q, byID[q.ID])
		results = append(results, r)
		summary.Recall += r.Recall
		summary.SnippetF1 += r.SnippetF1
		summary.Groundedness += r.Groundedness
		summary.AbstainAccuracy += r.AbstainAccuracy
		if r.Error != "" {
			summary.Failures++
		}
	}
	if n := float64(len(dataset)); n > 0 {
		summary.Recall /= n
		summary.SnippetF1 /= n
		summary.Groundedness /= n
		summary.AbstainAccuracy /= n
	}
	return summary, results
}

// EvaluateRuns evaluates every sub-directory of runsDir that holds a
// predictions file, in lexical order, writing report.json and report.csv
// into each and an aggregate pair into runsDir. Progress lines go to w.
func EvaluateRuns(dataset []types.Question, runsDir string, w io.Writer) ([]Summary, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("reading runs directory %s: %w", runsDir, err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runDir := filepath.Join(runsDir, entry.Name())
		predictions, err := LoadPredictions(filepath.Join(runDir, PredictionsFile))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", entry.Name(), err)
			continue
		}

		summary, results := EvaluateRun(dataset, predictions)
		summary.RunID = entry.Name()
		if err := writeJSON(filepath.Join(runDir, ReportJSONFile), summary); err != nil {
			return summaries, err
		}
		if err := WriteQuestionCSV(filepath.Join(runDir, ReportCSVFile), results); err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
		fmt.Fprintf(w, "saved report for %s\n", entry.Name())
	}

	if len(summaries) == 0 {
		fmt.Fprintf(w, "no runs with %s under %s\n", PredictionsFile, runsDir)
		return summaries, nil
	}
	if err := writeJSON(filepath.Join(runsDir, ReportJSONFile), summaries); err != nil {
		return summaries, err
	}
	if err := WriteSummaryCSV(filepath.Join(runsDir, ReportCSVFile), summaries); err != nil {
		return summaries, err
	}
	fmt.Fprintf(w, "saved aggregate report for %d runs to %s\n", len(summaries), runsDir)
	return summaries, nil
}

// LoadPredictions reads a predictions file. A missing file is reported with
// an error satisfying os.IsNotExist.
func LoadPredictions(path string) ([]types.Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var preds []types.Prediction
	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return preds, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteQuestionCSV writes one row per question.
func WriteQuestionCSV(path string, results []QuestionResult) error {
	rows := [][]string{{"question_id", "recall@10", "snippet_f1", "groundedness", "abstain_accuracy", "error"}}
	for _, r := range results {
		rows = append(rows, []string{
			r.QuestionID,
			formatFloat(r.Recall),
			formatFloat(r.SnippetF1),
			formatFloat(r.Groundedness),
			formatFloat(r.AbstainAccuracy),
			r.Error,
		})
	}
	return writeCSV(path, rows)
}

// WriteSummaryCSV writes one row per run.
func WriteSummaryCSV(path string, summaries []Summary) error {
	rows := [][]string{{"run_id", "questions", "failures", "recall@10", "snippet_f1", "groundedness", "abstain_accuracy"}}
	for _, s := range summaries {
		rows = append(rows, []string{
			s.RunID,
			strconv.Itoa(s.Questions),
			strconv.Itoa(s.Failures),
			formatFloat(s.Recall),
			formatFloat(s.SnippetF1),
			formatFloat(s.Groundedness),
			formatFloat(s.AbstainAccuracy),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
