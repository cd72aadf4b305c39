// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// GoldSnippet is a reference evidence passage annotated for a question.
type GoldSnippet struct {
	// Document is the reference string of the source article, typically a
	// PubMed URL whose final path segment is the PMID.
	Document string `json:"document" yaml:"document"`

	// Text is the annotated passage.
	Text string `json:"text" yaml:"text"`
}

// Question is one entry of a BioASQ-style dataset. Questions are immutable
// once parsed.
type Question struct {
	// ID is taken from id, qid, or question_id.
	ID string `json:"id" yaml:"id"`

	// Body is the question text with whitespace normalized.
	Body string `json:"body" yaml:"body"`

	// Type is the question type (factoid, list, yesno, summary), possibly empty.
	Type string `json:"type" yaml:"type"`

	// Documents lists gold reference strings.
	Documents []string `json:"documents" yaml:"documents"`

	// Snippets lists gold evidence passages.
	Snippets []GoldSnippet `json:"snippets" yaml:"snippets"`

	// ExactAnswer is kept in its raw JSON shape (string, list, or nested list).
	ExactAnswer any `json:"exact_answer,omitempty" yaml:"exact_answer,omitempty"`

	// IdealAnswer is kept in its raw JSON shape (string or list).
	IdealAnswer any `json:"ideal_answer,omitempty" yaml:"ideal_answer,omitempty"`

	// Unanswerable marks questions whose gold decision is to abstain.
	Unanswerable bool `json:"unanswerable,omitempty" yaml:"unanswerable,omitempty"`
}

// GoldTexts returns the text of every gold snippet, skipping empty ones.
func (q Question) GoldTexts() []string {
	var out []string
	for _, s := range q.Snippets {
		if s.Text != "" {
			out = append(out, s.Text)
		}
	}
	return out
}
