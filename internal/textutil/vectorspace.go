// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textutil

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// termPattern matches word tokens of at least two letters or digits.
var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// VectorSpace is a TF-IDF space fit over the texts of a single call. Rows
// are L2-normalized, so the dot product of two rows is their cosine
// similarity. A space is never reused across questions: scores are only
// comparable within the texts it was fit on.
type VectorSpace struct {
	vocabulary map[string]int
	idf        []float64
	rows       [][]weight
}

// weight is one non-zero entry of a sparse row. Rows are sorted by term.
type weight struct {
	term  int
	value float64
}

// Fit builds a vector space over texts. Terms are lower-cased, English stop
// words are removed, and idf is smoothed: ln((1+n)/(1+df)) + 1. Texts
// without any vocabulary term get a zero vector.
func Fit(texts []string) *VectorSpace {
	docs := make([][]string, len(texts))
	df := make(map[string]int)
	for i, text := range texts {
		docs[i] = Terms(text)
		seen := make(map[string]struct{}, len(docs[i]))
		for _, term := range docs[i] {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	// Stable ordering for vocabulary.
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vs := &VectorSpace{
		vocabulary: make(map[string]int, len(terms)),
		idf:        make([]float64, len(terms)),
		rows:       make([][]weight, len(texts)),
	}
	n := float64(len(texts))
	for i, term := range terms {
		vs.vocabulary[term] = i
		vs.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	for i, doc := range docs {
		vs.rows[i] = vs.weigh(doc)
	}
	return vs
}

// Len returns the number of texts the space was fit on.
func (vs *VectorSpace) Len() int { return len(vs.rows) }

// VocabularySize returns the number of distinct terms.
func (vs *VectorSpace) VocabularySize() int { return len(vs.idf) }

// Cosine returns the cosine similarity between texts i and j.
func (vs *VectorSpace) Cosine(i, j int) float64 {
	a, b := vs.rows[i], vs.rows[j]
	dot := 0.0
	for x, y := 0, 0; x < len(a) && y < len(b); {
		switch {
		case a[x].term < b[y].term:
			x++
		case a[x].term > b[y].term:
			y++
		default:
			dot += a[x].value * b[y].value
			x++
			y++
		}
	}
	return dot
}

// CosineMatrix returns the pairwise similarity of every fitted text.
func (vs *VectorSpace) CosineMatrix() [][]float64 {
	n := len(vs.rows)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := vs.Cosine(i, j)
			m[i][j] = c
			m[j][i] = c
		}
	}
	return m
}

func (vs *VectorSpace) weigh(doc []string) []weight {
	counts := make(map[int]float64)
	for _, term := range doc {
		if idx, ok := vs.vocabulary[term]; ok {
			counts[idx]++
		}
	}
	row := make([]weight, 0, len(counts))
	for idx, count := range counts {
		row = append(row, weight{term: idx, value: count * vs.idf[idx]})
	}
	sort.Slice(row, func(a, b int) bool { return row[a].term < row[b].term })

	norm := 0.0
	for _, w := range row {
		norm += w.value * w.value
	}
	if norm == 0 {
		return row
	}
	norm = math.Sqrt(norm)
	for i := range row {
		row[i].value /= norm
	}
	return row
}

// Terms returns the vector-space terms of text: lower-cased word tokens of
// two or more characters with English stop words removed.
func Terms(text string) []string {
	raw := termPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}
