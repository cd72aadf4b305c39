// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// AbstainAnswer is the predicted answer that signals an abstention.
const AbstainAnswer = "insufficient evidence"

// ConflictPair is a pair of evidence snippets from different documents that
// were judged to contradict each other.
type ConflictPair struct {
	A Snippet `json:"a" yaml:"a"`
	B Snippet `json:"b" yaml:"b"`
}

// Prediction is the output of one question in one run. It is written once
// and never mutated afterwards.
type Prediction struct {
	// QuestionID matches Question.ID.
	QuestionID string `json:"question_id" yaml:"question_id"`

	// RetrievedPMIDs is ordered by retrieval score; noise distractors are
	// appended at the tail.
	RetrievedPMIDs []string `json:"retrieved_pmids" yaml:"retrieved_pmids"`

	// Snippets is the selected evidence. Every snippet's PMID appears in
	// RetrievedPMIDs.
	Snippets []Snippet `json:"snippets" yaml:"snippets"`

	// PredictedExact is the exact answer, nil when none was produced.
	PredictedExact *string `json:"predicted_exact" yaml:"predicted_exact"`

	// PredictedIdeal is the free-text answer, nil when none was produced.
	PredictedIdeal *string `json:"predicted_ideal" yaml:"predicted_ideal"`

	// IsUnanswerable is set by the unanswerable stressor.
	IsUnanswerable bool `json:"is_unanswerable,omitempty" yaml:"is_unanswerable,omitempty"`

	// ConflictPairs and IsConflict are set by the conflict stressor.
	ConflictPairs []ConflictPair `json:"conflict_pairs,omitempty" yaml:"conflict_pairs,omitempty"`
	IsConflict    *bool          `json:"is_conflict,omitempty" yaml:"is_conflict,omitempty"`

	// PICOMismatchScore and IsPICOMismatch are set by the PICO stressor.
	PICOMismatchScore *float64 `json:"pico_mismatch_score,omitempty" yaml:"pico_mismatch_score,omitempty"`
	IsPICOMismatch    *bool    `json:"is_pico_mismatch,omitempty" yaml:"is_pico_mismatch,omitempty"`

	// Error records why this question could not be processed. Failed
	// predictions carry no evidence and score as empty records.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// AnswerTexts returns the non-empty predicted exact and ideal answers.
func (p Prediction) AnswerTexts() []string {
	var out []string
	if p.PredictedExact != nil && *p.PredictedExact != "" {
		out = append(out, *p.PredictedExact)
	}
	if p.PredictedIdeal != nil && *p.PredictedIdeal != "" {
		out = append(out, *p.PredictedIdeal)
	}
	return out
}

// PICOProfile holds the Population, Intervention, and Outcome of a text.
// Any field may be empty.
type PICOProfile struct {
	Population   string `json:"population" yaml:"population"`
	Intervention string `json:"intervention" yaml:"intervention"`
	Outcome      string `json:"outcome" yaml:"outcome"`
}

// IsEmpty reports whether no field was extracted.
func (p PICOProfile) IsEmpty() bool {
	return p.Population == "" && p.Intervention == "" && p.Outcome == ""
}
