// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pico extracts Population, Intervention, and Outcome fields from
// free text and scores how far a snippet's profile drifts from the
// question's.
package pico

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pdiddy/biorag-stress/internal/judge"
	"github.com/pdiddy/biorag-stress/internal/textutil"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// Extractor derives a PICO profile from text. Extract never fails; fields
// that cannot be determined are empty.
type Extractor interface {
	Extract(ctx context.Context, text string) types.PICOProfile
}

var (
	populationCue   = regexp.MustCompile(`(?i)(patients|adults|children|subjects|participants|women|men)[^,.]*`)
	interventionCue = regexp.MustCompile(`(?i)(treat|therapy|drug|intervention|procedure)[^,.]*`)
	outcomeCue      = regexp.MustCompile(`(?i)(outcome|effect|response|survival|mortality)[^,.]*`)
)

// HeuristicExtractor matches cue words and takes the text that follows
// them up to the next comma or period.
type HeuristicExtractor struct{}

// Extract implements Extractor.
func (HeuristicExtractor) Extract(_ context.Context, text string) types.PICOProfile {
	text = textutil.NormalizeWhitespace(text)
	return types.PICOProfile{
		Population:   populationCue.FindString(text),
		Intervention: interventionCue.FindString(text),
		Outcome:      outcomeCue.FindString(text),
	}
}

const extractionInstruction = "Extract PICO elements as JSON with keys population, intervention, outcome."

var profileSchema = judge.MustSchema("pico", `{
  "type": "object",
  "properties": {
    "population": {"type": "string"},
    "intervention": {"type": "string"},
    "outcome": {"type": "string"}
  },
  "required": ["population", "intervention", "outcome"],
  "additionalProperties": false
}`)

// RemoteJudgeExtractor asks the remote judge first and falls back to the
// heuristic on any failure. Fallbacks are logged at WARN.
type RemoteJudgeExtractor struct {
	Judge    judge.Completer
	Fallback HeuristicExtractor
	Logger   *slog.Logger
}

// Extract implements Extractor.
func (r *RemoteJudgeExtractor) Extract(ctx context.Context, text string) types.PICOProfile {
	raw, err := r.Judge.CompleteJSON(ctx, extractionInstruction, text, profileSchema)
	if err == nil {
		var p types.PICOProfile
		if err = json.Unmarshal(raw, &p); err == nil {
			return p
		}
	}
	r.logger().Warn("remote PICO extraction failed, using heuristic", "error", err)
	return r.Fallback.Extract(ctx, text)
}

func (r *RemoteJudgeExtractor) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// NewExtractor returns the remote variant when remote is enabled and a judge
// is available, and the heuristic otherwise.
func NewExtractor(j judge.Completer, remote bool, logger *slog.Logger) Extractor {
	if remote && j != nil {
		return &RemoteJudgeExtractor{Judge: j, Logger: logger}
	}
	return HeuristicExtractor{}
}

// Similarity is the cosine of a and b in a space fit on just the two texts.
// It is 0 when either side is empty and 1 when both normalize to the same
// text, even one without vocabulary terms.
func Similarity(a, b string) float64 {
	a, b = textutil.NormalizeWhitespace(a), textutil.NormalizeWhitespace(b)
	if a == "" || b == "" {
		return 0
	}
	if strings.EqualFold(a, b) {
		return 1
	}
	return textutil.Fit([]string{a, b}).Cosine(0, 1)
}

// mismatchEpsilon absorbs rounding in the field cosines.
const mismatchEpsilon = 1e-12

// Mismatch is one minus the mean field similarity of q and s, in [0, 1].
func Mismatch(q, s types.PICOProfile) float64 {
	mean := (Similarity(q.Population, s.Population) +
		Similarity(q.Intervention, s.Intervention) +
		Similarity(q.Outcome, s.Outcome)) / 3
	m := 1 - mean
	switch {
	case m < mismatchEpsilon:
		return 0
	case m > 1:
		return 1
	}
	return m
}

// AggregateMismatch is the mean of scores, 0 when there are none.
func AggregateMismatch(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
