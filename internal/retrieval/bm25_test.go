// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biorag-stress/pkg/types"
)

func sampleCorpus() []types.Document {
	return []types.Document{
		{PMID: "1", Text: "Aspirin reduces headache pain."},
		{PMID: "2", Text: "Aspirin has no effect on headache pain."},
		{PMID: "3", Text: "Insulin therapy lowers blood glucose in diabetic adults."},
		{PMID: "4", Text: "Metformin is first line therapy for type 2 diabetes."},
		{PMID: "5", Text: "Statins reduce cardiovascular mortality."},
	}
}

func TestRankEmptyCorpus(t *testing.T) {
	got := Rank("aspirin", nil, 1.2, 0.75, 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRankBoundedAndNonIncreasing(t *testing.T) {
	corpus := sampleCorpus()
	for _, topK := range []int{1, 2, 3, 10} {
		t.Run(fmt.Sprintf("top_k=%d", topK), func(t *testing.T) {
			got := Rank("insulin therapy for diabetes", corpus, 1.2, 0.75, topK)
			assert.LessOrEqual(t, len(got), topK)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
			}
		})
	}
}

func TestRankPrefersMatchingDocuments(t *testing.T) {
	got := Rank("insulin glucose", sampleCorpus(), 1.2, 0.75, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].PMID)
	assert.Greater(t, got[0].Score, 0.0)
}

func TestRankNoRecognizedTokensReturnsCorpusPrefix(t *testing.T) {
	got := Rank("?? !!", sampleCorpus(), 1.2, 0.75, 3)
	assert.Equal(t, []string{"1", "2", "3"}, types.PMIDs(got))
	for _, d := range got {
		assert.Equal(t, 0.0, d.Score)
	}
}

func TestRankDoesNotMutateCorpus(t *testing.T) {
	corpus := sampleCorpus()
	_ = Rank("aspirin headache", corpus, 1.2, 0.75, 5)
	for _, d := range corpus {
		assert.Equal(t, 0.0, d.Score)
	}
}

func TestRankStableTieBreak(t *testing.T) {
	corpus := []types.Document{
		{PMID: "a", Text: "same words here"},
		{PMID: "b", Text: "same words here"},
		{PMID: "c", Text: "same words here"},
	}
	got := Rank("words", corpus, 1.2, 0.75, 3)
	assert.Equal(t, []string{"a", "b", "c"}, types.PMIDs(got))
}

func TestRankAspirinScenario(t *testing.T) {
	corpus := sampleCorpus()[:2]
	got := Rank("does aspirin help headache", corpus, 1.2, 0.75, 10)
	assert.Equal(t, []string{"1", "2"}, types.PMIDs(got))
}

func TestNegativeIDFIsFloored(t *testing.T) {
	idx := NewBM25(sampleCorpus()[:2], 1.2, 0.75)
	for term, w := range idx.idf {
		assert.GreaterOrEqual(t, w, 0.0, term)
	}
}
