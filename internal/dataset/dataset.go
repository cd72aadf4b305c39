// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset parses BioASQ-style question files. A file is either a
// list of question objects, an object with a "questions" list, or an object
// whose values are question objects.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdiddy/biorag-stress/internal/textutil"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// ErrUnsupportedFormat is returned when the top-level JSON value is neither
// a list nor an object of questions.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// ErrNoQuestions is returned by Validate for a dataset without questions.
var ErrNoQuestions = errors.New("no questions found in dataset")

var pmidPattern = regexp.MustCompile(`\d{6,}`)

// Load reads and parses the dataset at path.
func Load(path string) ([]types.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	qs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return qs, nil
}

// Parse decodes raw into questions. Entries that are not JSON objects are
// skipped. Object-of-questions files are read in key order.
func Parse(raw []byte) ([]types.Question, error) {
	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var items []any
	switch v := top.(type) {
	case []any:
		items = v
	case map[string]any:
		if qs, ok := v["questions"]; ok {
			list, ok := qs.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: questions is not a list", ErrUnsupportedFormat)
			}
			items = list
			break
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			items = append(items, v[k])
		}
	default:
		return nil, ErrUnsupportedFormat
	}

	questions := make([]types.Question, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		questions = append(questions, parseQuestion(entry))
	}
	return questions, nil
}

func parseQuestion(entry map[string]any) types.Question {
	q := types.Question{
		ID:           firstString(entry, "id", "qid", "question_id"),
		Body:         textutil.NormalizeWhitespace(firstString(entry, "body", "question")),
		Type:         firstString(entry, "type", "question_type"),
		ExactAnswer:  entry["exact_answer"],
		IdealAnswer:  entry["ideal_answer"],
		Unanswerable: firstBool(entry, "unanswerable", "is_unanswerable"),
	}
	if docs, ok := entry["documents"].([]any); ok {
		for _, d := range docs {
			if s, ok := d.(string); ok {
				q.Documents = append(q.Documents, s)
			}
		}
	}
	if snippets, ok := entry["snippets"].([]any); ok {
		for _, s := range snippets {
			obj, ok := s.(map[string]any)
			if !ok {
				continue
			}
			doc, _ := obj["document"].(string)
			text, _ := obj["text"].(string)
			q.Snippets = append(q.Snippets, types.GoldSnippet{Document: doc, Text: text})
		}
	}
	return q
}

// firstString returns the first key holding a non-empty string or number.
func firstString(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := entry[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func firstBool(entry map[string]any, keys ...string) bool {
	for _, k := range keys {
		if b, ok := entry[k].(bool); ok && b {
			return true
		}
	}
	return false
}

// Report summarizes dataset validation.
type Report struct {
	Questions       int
	MissingIDOrBody int
}

// Validate checks that the dataset has questions and counts the ones
// without an id or body.
func Validate(questions []types.Question) (Report, error) {
	r := Report{Questions: len(questions)}
	if len(questions) == 0 {
		return r, ErrNoQuestions
	}
	for _, q := range questions {
		if q.ID == "" || q.Body == "" {
			r.MissingIDOrBody++
		}
	}
	return r, nil
}

// GoldPMIDs returns the sorted unique PMIDs referenced by gold documents
// and gold snippets. A PMID is the first run of six or more digits.
func GoldPMIDs(questions []types.Question) []string {
	seen := make(map[string]struct{})
	add := func(ref string) {
		if m := pmidPattern.FindString(ref); m != "" {
			seen[m] = struct{}{}
		}
	}
	for _, q := range questions {
		for _, d := range q.Documents {
			add(d)
		}
		for _, s := range q.Snippets {
			add(s.Document)
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
