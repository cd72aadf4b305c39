// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores run predictions against gold annotations and
// writes per-run and aggregate reports. Every metric returns 0 for vacuous
// input rather than an error.
package evaluate

import (
	"strings"

	"github.com/pdiddy/biorag-stress/internal/textutil"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// RecallK is the retrieval cutoff used in reports.
const RecallK = 10

// RecallAtK is the fraction of gold identifiers found in retrieved[:k].
// It is 0 when gold is empty.
func RecallAtK(gold, retrieved []string, k int) float64 {
	goldSet := make(map[string]struct{}, len(gold))
	for _, g := range gold {
		goldSet[g] = struct{}{}
	}
	if len(goldSet) == 0 {
		return 0
	}
	if k > len(retrieved) {
		k = len(retrieved)
	}
	if k < 0 {
		k = 0
	}
	hits := make(map[string]struct{})
	for _, r := range retrieved[:k] {
		if _, ok := goldSet[r]; ok {
			hits[r] = struct{}{}
		}
	}
	return float64(len(hits)) / float64(len(goldSet))
}

// GoldPMIDs returns the final path segment of each gold document reference.
func GoldPMIDs(q types.Question) []string {
	out := make([]string, 0, len(q.Documents))
	for _, ref := range q.Documents {
		if i := strings.LastIndex(ref, "/"); i >= 0 {
			ref = ref[i+1:]
		}
		out = append(out, ref)
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	tokens := textutil.Tokenize(s)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// TokenOverlapF1 is the F1 of the token sets of gold and pred.
func TokenOverlapF1(gold, pred string) float64 {
	g, p := tokenSet(gold), tokenSet(pred)
	if len(g) == 0 || len(p) == 0 {
		return 0
	}
	common := 0
	for t := range g {
		if _, ok := p[t]; ok {
			common++
		}
	}
	if common == 0 {
		return 0
	}
	precision := float64(common) / float64(len(p))
	recall := float64(common) / float64(len(g))
	return 2 * precision * recall / (precision + recall)
}

// SnippetF1 averages, over gold snippets, the best TokenOverlapF1 against
// any predicted snippet.
func SnippetF1(gold, pred []string) float64 {
	if len(gold) == 0 || len(pred) == 0 {
		return 0
	}
	sum := 0.0
	for _, g := range gold {
		best := 0.0
		for _, p := range pred {
			if f := TokenOverlapF1(g, p); f > best {
				best = f
			}
		}
		sum += best
	}
	return sum / float64(len(gold))
}

// Groundedness fits one vector space over answers and snippets, takes each
// answer's best cosine against the snippets, and averages over answers.
// Without answers it is the mean cosine of the first snippet against every
// snippet. It is 0 without snippets.
func Groundedness(answers, snippets []string) float64 {
	if len(snippets) == 0 {
		return 0
	}
	texts := make([]string, 0, len(answers)+len(snippets))
	texts = append(texts, answers...)
	texts = append(texts, snippets...)
	vs := textutil.Fit(texts)

	if len(answers) == 0 {
		sum := 0.0
		for j := range snippets {
			sum += vs.Cosine(0, j)
		}
		return sum / float64(len(snippets))
	}

	sum := 0.0
	for i := range answers {
		best := 0.0
		for j := range snippets {
			if c := vs.Cosine(i, len(answers)+j); c > best {
				best = c
			}
		}
		sum += best
	}
	return sum / float64(len(answers))
}

// IsAbstention reports whether answer is the abstention sentinel.
func IsAbstention(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), types.AbstainAnswer)
}

// AbstentionCorrect is 1 when the abstain decision in predictedExact
// matches expectAbstain and 0 otherwise.
func AbstentionCorrect(expectAbstain bool, predictedExact string) float64 {
	if IsAbstention(predictedExact) == expectAbstain {
		return 1
	}
	return 0
}
