// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biorag-stress/pkg/types"
)

const questionsObject = `{
  "questions": [
    {
      "id": "q1",
      "body": "Does  aspirin\n help headache?",
      "type": "yesno",
      "documents": ["http://www.ncbi.nlm.nih.gov/pubmed/12345678", 42],
      "snippets": [{"document": "http://www.ncbi.nlm.nih.gov/pubmed/23456789", "text": "Aspirin reduces headache pain."}],
      "exact_answer": "yes",
      "ideal_answer": ["Aspirin helps."]
    },
    "not an object",
    {"qid": 7, "question": "Is insulin effective?", "question_type": "factoid", "is_unanswerable": true}
  ]
}`

func TestParseQuestionsObject(t *testing.T) {
	qs, err := Parse([]byte(questionsObject))
	require.NoError(t, err)
	require.Len(t, qs, 2)

	q := qs[0]
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, "Does aspirin help headache?", q.Body)
	assert.Equal(t, "yesno", q.Type)
	assert.Equal(t, []string{"http://www.ncbi.nlm.nih.gov/pubmed/12345678"}, q.Documents)
	assert.Equal(t, []types.GoldSnippet{{
		Document: "http://www.ncbi.nlm.nih.gov/pubmed/23456789",
		Text:     "Aspirin reduces headache pain.",
	}}, q.Snippets)
	assert.Equal(t, "yes", q.ExactAnswer)
	assert.False(t, q.Unanswerable)

	q = qs[1]
	assert.Equal(t, "7", q.ID)
	assert.Equal(t, "Is insulin effective?", q.Body)
	assert.Equal(t, "factoid", q.Type)
	assert.True(t, q.Unanswerable)
}

func TestParseList(t *testing.T) {
	qs, err := Parse([]byte(`[{"question_id": "a", "body": "x"}, {"id": "b", "body": "y"}]`))
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "a", qs[0].ID)
	assert.Equal(t, "b", qs[1].ID)
}

func TestParseKeyedObject(t *testing.T) {
	qs, err := Parse([]byte(`{"z": {"id": "z1", "body": "last"}, "a": {"id": "a1", "body": "first"}}`))
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "a1", qs[0].ID)
	assert.Equal(t, "z1", qs[1].ID)
}

func TestParseUnsupported(t *testing.T) {
	for _, raw := range []string{`"just a string"`, `42`, `{"questions": "nope"}`, `not json`} {
		_, err := Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrUnsupportedFormat, raw)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(questionsObject), 0o644))
	qs, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, qs, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	_, err := Validate(nil)
	assert.ErrorIs(t, err, ErrNoQuestions)

	r, err := Validate([]types.Question{{ID: "1", Body: "x"}, {ID: "", Body: "y"}, {ID: "3"}})
	require.NoError(t, err)
	assert.Equal(t, Report{Questions: 3, MissingIDOrBody: 2}, r)
}

func TestGoldPMIDs(t *testing.T) {
	qs, err := Parse([]byte(questionsObject))
	require.NoError(t, err)
	qs = append(qs, types.Question{Documents: []string{"http://x/pubmed/12345678", "short 12345"}})
	assert.Equal(t, []string{"12345678", "23456789"}, GoldPMIDs(qs))
}
