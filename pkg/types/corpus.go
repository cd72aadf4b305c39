// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the biorag-stress pipeline:
// corpus documents, evidence snippets, dataset questions, run predictions,
// PICO profiles, and the stage configurations that drive a run.
package types

// Document is a corpus record. Corpus files carry one JSON object per line
// with pmid, title, abstract, and text.
type Document struct {
	// PMID is the PubMed identifier and the document's identity key.
	PMID string `json:"pmid" yaml:"pmid"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Text is the indexed body (title followed by abstract).
	Text string `json:"text" yaml:"text"`

	// Score is the retrieval score assigned by the ranker. It is only
	// meaningful within one retrieval run and is never set on the corpus copy.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// Snippet is one sentence of a retrieved document considered as evidence.
// Snippets live for a single retrieval and selection call.
type Snippet struct {
	// PMID references the owning document.
	PMID string `json:"pmid" yaml:"pmid"`

	// Sentence is the whitespace-normalized sentence text.
	Sentence string `json:"sentence" yaml:"sentence"`

	// DocScore is inherited from the owning document's retrieval score.
	DocScore float64 `json:"doc_score" yaml:"doc_score"`

	// Score is the query relevance assigned by the selector. Scores are only
	// comparable within the call that produced them.
	Score float64 `json:"score" yaml:"score"`
}

// PMIDs returns the identifiers of docs in order.
func PMIDs(docs []Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.PMID
	}
	return ids
}

// Sentences returns the sentence text of each snippet in order.
func Sentences(snippets []Snippet) []string {
	out := make([]string, len(snippets))
	for i, s := range snippets {
		out[i] = s.Sentence
	}
	return out
}
