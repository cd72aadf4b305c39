// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snippets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biorag-stress/pkg/types"
)

func TestExtractCapsPerDocument(t *testing.T) {
	docs := []types.Document{
		{PMID: "1", Text: "One. Two. Three.", Score: 2.5},
		{PMID: "2", Text: "Alpha! Beta?", Score: 1.0},
	}
	got := Extract(docs, 2)
	require.Len(t, got, 4)
	assert.Equal(t, "One.", got[0].Sentence)
	assert.Equal(t, "Two.", got[1].Sentence)
	assert.Equal(t, 2.5, got[1].DocScore)
	assert.Equal(t, "2", got[2].PMID)
	assert.Equal(t, "Beta?", got[3].Sentence)
}

func TestExtractEmpty(t *testing.T) {
	assert.Empty(t, Extract(nil, 50))
	assert.Empty(t, Extract([]types.Document{{PMID: "1", Text: "  "}}, 50))
}

func TestScoreAssignsRelevance(t *testing.T) {
	in := []types.Snippet{
		{PMID: "1", Sentence: "Insulin lowers blood glucose."},
		{PMID: "2", Sentence: "Statins reduce mortality."},
	}
	got := Score("insulin glucose", in)
	require.Len(t, got, 2)
	assert.Greater(t, got[0].Score, 0.0)
	assert.Equal(t, 0.0, got[1].Score)
	assert.Equal(t, 0.0, in[0].Score, "input must not be modified")
}

func TestSelectEmpty(t *testing.T) {
	assert.Empty(t, Select(nil, 10, 0.7))
	assert.Empty(t, Select([]types.Snippet{}, 10, 1.0))
}

func TestSelectTruncationOrder(t *testing.T) {
	in := []types.Snippet{
		{PMID: "a", Sentence: "low", Score: 0.1, DocScore: 9},
		{PMID: "b", Sentence: "tie late", Score: 0.5, DocScore: 1},
		{PMID: "c", Sentence: "tie early", Score: 0.5, DocScore: 3},
		{PMID: "d", Sentence: "top", Score: 0.9, DocScore: 0},
	}
	got := Select(in, 3, 1.0)
	assert.Equal(t, []string{"top", "tie early", "tie late"}, types.Sentences(got))
}

func TestSelectNeverExceedsSnippetK(t *testing.T) {
	var in []types.Snippet
	for i := 0; i < 25; i++ {
		in = append(in, types.Snippet{PMID: "p", Sentence: "distinct sentence number " + string(rune('a'+i)) + "x", Score: float64(i)})
	}
	for _, lambda := range []float64{0.0, 0.7, 1.0} {
		assert.LessOrEqual(t, len(Select(in, 10, lambda)), 10)
	}
}

func TestSelectLambdaOneIsTruncation(t *testing.T) {
	in := []types.Snippet{
		{PMID: "1", Sentence: "Aspirin reduces headache pain.", Score: 0.9},
		{PMID: "2", Sentence: "Aspirin reduces headache pain.", Score: 0.8},
		{PMID: "3", Sentence: "Insulin lowers glucose.", Score: 0.2},
	}
	got := Select(in, 3, 1.0)
	assert.Equal(t, in, got)
}

func TestSelectDropsNearDuplicates(t *testing.T) {
	in := []types.Snippet{
		{PMID: "1", Sentence: "Aspirin reduces headache pain.", Score: 0.9},
		{PMID: "2", Sentence: "Aspirin reduces headache pain.", Score: 0.8},
		{PMID: "3", Sentence: "Insulin lowers glucose.", Score: 0.2},
	}
	got := Select(in, 3, 0.7)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].PMID)
	assert.Equal(t, "3", got[1].PMID)
}

func TestSelectOnlyConsidersTruncatedPool(t *testing.T) {
	in := []types.Snippet{
		{PMID: "1", Sentence: "Aspirin reduces headache pain.", Score: 0.9},
		{PMID: "2", Sentence: "Aspirin reduces headache pain.", Score: 0.8},
		{PMID: "3", Sentence: "Insulin lowers glucose.", Score: 0.2},
	}
	got := Select(in, 2, 0.7)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].PMID)
}

func TestEvidenceAspirinScenario(t *testing.T) {
	docs := []types.Document{
		{PMID: "1", Text: "Aspirin reduces headache pain."},
		{PMID: "2", Text: "Aspirin has no effect on headache pain."},
	}
	cfg := types.SnippetConfig{MaxSentencesPerDoc: 50, SnippetK: 10, DiversityLambda: 0.7}
	got := Evidence("does aspirin help headache", docs, cfg)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"1", "2"}, []string{got[0].PMID, got[1].PMID})
}
