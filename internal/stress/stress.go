// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stress implements the four perturbations applied to a question's
// retrieved documents and selected evidence: distractor injection,
// contradiction detection, supporting-evidence removal, and PICO mismatch
// scoring. Every injector works on copies of its inputs.
package stress

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/pdiddy/biorag-stress/internal/pico"
	"github.com/pdiddy/biorag-stress/internal/textutil"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// Kind names a stressor.
type Kind string

const (
	Noise        Kind = "noise"
	Conflict     Kind = "conflict"
	Unanswerable Kind = "unanswerable"
	PICOMismatch Kind = "pico_mismatch"
)

// Kinds lists every stressor in run order.
var Kinds = []Kind{Noise, Conflict, Unanswerable, PICOMismatch}

// ParseKind validates a stressor name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown stressor %q", s)
}

// NewRand returns a generator seeded for one call. Callers create one per
// question so that results do not depend on processing order.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0))
}

// InjectNoise returns retrieved followed by up to distractorK documents from
// pool whose PMIDs are not already retrieved. Candidates keep pool order
// before being shuffled with rng. Retrieved entries are never reordered.
func InjectNoise(retrieved, pool []types.Document, distractorK int, rng *rand.Rand) []types.Document {
	out := make([]types.Document, len(retrieved), len(retrieved)+max(distractorK, 0))
	copy(out, retrieved)
	if distractorK <= 0 {
		return out
	}

	seen := make(map[string]struct{}, len(retrieved))
	for _, d := range retrieved {
		seen[d.PMID] = struct{}{}
	}
	var candidates []types.Document
	for _, d := range pool {
		if _, ok := seen[d.PMID]; ok {
			continue
		}
		seen[d.PMID] = struct{}{}
		candidates = append(candidates, d)
	}
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > distractorK {
		candidates = candidates[:distractorK]
	}
	return append(out, candidates...)
}

// DetectConflicts returns every pair i<j of snippets from different
// documents whose cosine similarity exceeds threshold, in index order.
func DetectConflicts(snippets []types.Snippet, threshold float64) []types.ConflictPair {
	if len(snippets) < 2 {
		return nil
	}
	sim := textutil.Fit(types.Sentences(snippets)).CosineMatrix()
	var pairs []types.ConflictPair
	for i := 0; i < len(snippets); i++ {
		for j := i + 1; j < len(snippets); j++ {
			if snippets[i].PMID == snippets[j].PMID {
				continue
			}
			if sim[i][j] > threshold {
				pairs = append(pairs, types.ConflictPair{A: snippets[i], B: snippets[j]})
			}
		}
	}
	return pairs
}

// Contradictor confirms whether two sentences contradict each other.
type Contradictor interface {
	Contradicts(ctx context.Context, a, b string) (bool, error)
}

// ConfirmConflicts filters candidates through judge. A nil judge confirms
// every candidate. A judge error confirms the candidate and is logged.
func ConfirmConflicts(ctx context.Context, candidates []types.ConflictPair, judge Contradictor, logger *slog.Logger) []types.ConflictPair {
	if judge == nil {
		return append([]types.ConflictPair(nil), candidates...)
	}
	if logger == nil {
		logger = slog.Default()
	}
	var confirmed []types.ConflictPair
	for _, c := range candidates {
		ok, err := judge.Contradicts(ctx, c.A.Sentence, c.B.Sentence)
		if err != nil {
			logger.Warn("conflict judge failed, keeping candidate",
				"pmid_a", c.A.PMID, "pmid_b", c.B.PMID, "error", err)
			ok = true
		}
		if ok {
			confirmed = append(confirmed, c)
		}
	}
	return confirmed
}

// RemoveSupporting drops the min(n, len) highest-scored snippets. Ties go to
// the earlier snippet. Survivors keep their original relative order.
func RemoveSupporting(snippets []types.Snippet, n int) []types.Snippet {
	if n <= 0 {
		return append([]types.Snippet{}, snippets...)
	}
	order := make([]int, len(snippets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return snippets[order[a]].Score > snippets[order[b]].Score
	})
	if n > len(order) {
		n = len(order)
	}
	removed := make(map[int]struct{}, n)
	for _, idx := range order[:n] {
		removed[idx] = struct{}{}
	}

	out := make([]types.Snippet, 0, len(snippets)-n)
	for i, s := range snippets {
		if _, ok := removed[i]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// PICOResult is the outcome of PICO mismatch scoring for one question.
type PICOResult struct {
	Scores  []float64
	Mean    float64
	Flagged bool
}

// ScorePICOMismatch profiles the question once and each snippet, and flags
// the question when the mean mismatch reaches threshold.
func ScorePICOMismatch(ctx context.Context, question string, snippets []types.Snippet, ex pico.Extractor, threshold float64) PICOResult {
	qp := ex.Extract(ctx, question)
	scores := make([]float64, len(snippets))
	for i, s := range snippets {
		scores[i] = pico.Mismatch(qp, ex.Extract(ctx, s.Sentence))
	}
	mean := pico.AggregateMismatch(scores)
	return PICOResult{Scores: scores, Mean: mean, Flagged: mean >= threshold}
}
