// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval ranks corpus documents against a question with Okapi
// BM25 over the shared alphanumeric tokenizer. The index is built in memory
// for one run and never persisted.
package retrieval

import (
	"math"
	"sort"

	"github.com/pdiddy/biorag-stress/internal/textutil"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// epsilon scales the floor that replaces negative idf values.
const epsilon = 0.25

// BM25 is an in-memory Okapi BM25 index over a corpus. It is read-only after
// construction and safe for concurrent Rank calls.
type BM25 struct {
	corpus   []types.Document
	termFreq []map[string]int
	docLen   []int
	avgLen   float64
	idf      map[string]float64
	k1       float64
	b        float64
}

// NewBM25 tokenizes each document's text and computes idf values. k1 sets
// term-frequency saturation and b the strength of length normalization.
func NewBM25(corpus []types.Document, k1, b float64) *BM25 {
	idx := &BM25{
		corpus:   corpus,
		termFreq: make([]map[string]int, len(corpus)),
		docLen:   make([]int, len(corpus)),
		idf:      make(map[string]float64),
		k1:       k1,
		b:        b,
	}
	if len(corpus) == 0 {
		return idx
	}

	df := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		tokens := textutil.Tokenize(doc.Text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for tok := range tf {
			df[tok]++
		}
		idx.termFreq[i] = tf
		idx.docLen[i] = len(tokens)
		total += len(tokens)
	}
	idx.avgLen = float64(total) / float64(len(corpus))

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	sum := 0.0
	var negative []string
	for _, term := range terms {
		freq := df[term]
		v := math.Log(n-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		idx.idf[term] = v
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}

	// Terms present in more than half the corpus get a small positive
	// weight, or none when the corpus average is itself non-positive.
	floor := 0.0
	if avg := sum / float64(len(df)); avg > 0 {
		floor = epsilon * avg
	}
	for _, term := range negative {
		idx.idf[term] = floor
	}
	return idx
}

// Len returns the number of indexed documents.
func (idx *BM25) Len() int { return len(idx.corpus) }

// Scores returns the BM25 score of every document for query, in corpus order.
func (idx *BM25) Scores(query string) []float64 {
	scores := make([]float64, len(idx.corpus))
	for _, q := range textutil.Tokenize(query) {
		w, ok := idx.idf[q]
		if !ok {
			continue
		}
		for i, tf := range idx.termFreq {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			norm := 1 - idx.b
			if idx.avgLen > 0 {
				norm += idx.b * float64(idx.docLen[i]) / idx.avgLen
			}
			scores[i] += w * f * (idx.k1 + 1) / (f + idx.k1*norm)
		}
	}
	return scores
}

// Rank returns at most topK copies of the best-scoring documents, each
// carrying its Score. Ties keep corpus order. The indexed corpus is not
// modified.
func (idx *BM25) Rank(query string, topK int) []types.Document {
	if len(idx.corpus) == 0 || topK <= 0 {
		return []types.Document{}
	}
	scores := idx.Scores(query)

	order := make([]int, len(idx.corpus))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}
	results := make([]types.Document, topK)
	for i, docIdx := range order[:topK] {
		doc := idx.corpus[docIdx]
		doc.Score = scores[docIdx]
		results[i] = doc
	}
	return results
}

// Rank builds a throwaway index and ranks corpus against query.
func Rank(query string, corpus []types.Document, k1, b float64, topK int) []types.Document {
	return NewBM25(corpus, k1, b).Rank(query, topK)
}
