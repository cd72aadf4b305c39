// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package snippets turns ranked documents into a bounded evidence set:
// sentence extraction, query relevance scoring in a per-call TF-IDF space,
// and truncation followed by near-duplicate filtering.
package snippets

import (
	"sort"

	"github.com/pdiddy/biorag-stress/internal/textutil"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// DuplicateThreshold is the similarity at or above which a sentence is
// treated as a near-duplicate of one already selected.
const DuplicateThreshold = 0.8

// Extract splits each document's text into sentences, keeping at most
// maxSentences per document in their original order. Each snippet inherits
// the document's retrieval score.
func Extract(docs []types.Document, maxSentences int) []types.Snippet {
	var out []types.Snippet
	for _, doc := range docs {
		sentences := textutil.SplitSentences(doc.Text)
		if maxSentences >= 0 && len(sentences) > maxSentences {
			sentences = sentences[:maxSentences]
		}
		for _, s := range sentences {
			out = append(out, types.Snippet{
				PMID:     doc.PMID,
				Sentence: s,
				DocScore: doc.Score,
			})
		}
	}
	return out
}

// Score returns a copy of snippets with Score set to the cosine similarity
// between query and each sentence. The vector space is fit jointly over the
// query and all sentences of this call.
func Score(query string, snippets []types.Snippet) []types.Snippet {
	if len(snippets) == 0 {
		return []types.Snippet{}
	}
	texts := make([]string, 0, len(snippets)+1)
	texts = append(texts, query)
	texts = append(texts, types.Sentences(snippets)...)
	vs := textutil.Fit(texts)

	scored := make([]types.Snippet, len(snippets))
	for i, s := range snippets {
		s.Score = vs.Cosine(0, i+1)
		scored[i] = s
	}
	return scored
}

// Select picks at most snippetK snippets. The pool is the top snippetK by
// (Score, DocScore); when diversityLambda is below 1 the pool is walked in
// order and a sentence is kept only if it is not a near-duplicate of any
// kept sentence. If nothing survives the pool is returned unchanged.
func Select(snippets []types.Snippet, snippetK int, diversityLambda float64) []types.Snippet {
	if len(snippets) == 0 || snippetK <= 0 {
		return []types.Snippet{}
	}

	pool := make([]types.Snippet, len(snippets))
	copy(pool, snippets)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		return pool[i].DocScore > pool[j].DocScore
	})
	if len(pool) > snippetK {
		pool = pool[:snippetK]
	}

	if diversityLambda >= 1.0 || len(pool) <= 1 {
		return pool
	}

	sim := textutil.Fit(types.Sentences(pool)).CosineMatrix()
	var kept []int
	for i := range pool {
		duplicate := false
		for _, k := range kept {
			if sim[i][k] >= DuplicateThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		return pool
	}

	out := make([]types.Snippet, len(kept))
	for i, k := range kept {
		out[i] = pool[k]
	}
	return out
}

// Evidence runs extraction, scoring, and selection for one question.
func Evidence(query string, docs []types.Document, cfg types.SnippetConfig) []types.Snippet {
	candidates := Extract(docs, cfg.MaxSentencesPerDoc)
	return Select(Score(query, candidates), cfg.SnippetK, cfg.DiversityLambda)
}
