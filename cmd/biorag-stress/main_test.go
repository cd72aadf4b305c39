// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/biorag-stress/internal/pico"
	"github.com/pdiddy/biorag-stress/internal/runner"
	"github.com/pdiddy/biorag-stress/internal/stress"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, types.DefaultPipelineConfig())
	v.SetEnvPrefix("BIORAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeConfigDefaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPipelineConfig(), cfg)
}

func TestDecodeConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biorag-stress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
retrieval:
  top_k: 20
stressors:
  noise:
    enabled: false
  conflict:
    llm_judge: true
judge:
  timeout: 10s
pubmed:
  user_agent: test-agent
`), 0o644))
	t.Setenv("BIORAG_SNIPPETS_SNIPPET_K", "4")
	t.Setenv("BIORAG_WORKERS", "3")

	v := newTestViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Retrieval.TopK)
	assert.Equal(t, 1.2, cfg.Retrieval.K1)
	assert.False(t, cfg.Stressors.Noise.Enabled)
	assert.Equal(t, 5, cfg.Stressors.Noise.DistractorK)
	assert.True(t, cfg.Stressors.Conflict.LLMJudge)
	assert.Equal(t, 10*time.Second, cfg.Judge.Timeout)
	assert.Equal(t, "test-agent", cfg.PubMed.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.PubMed.Timeout)
	assert.Equal(t, 4, cfg.Snippets.SnippetK)
	assert.Equal(t, 3, cfg.Workers)
}

func TestConfigYAMLOmitsCredentials(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Judge.APIKey = "sk-secret"
	cfg.PubMed.Email = "me@example.org"

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "sk-secret")
	assert.NotContains(t, string(out), "me@example.org")
	assert.Contains(t, string(out), "bm25_k1: 1.2")
}

func TestSelectKinds(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	kinds, err := selectKinds(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, stress.Kinds, kinds)

	cfg.Stressors.Noise.Enabled = false
	cfg.Stressors.PICOMismatch.Enabled = false
	kinds, err = selectKinds(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, []stress.Kind{stress.Conflict, stress.Unanswerable}, kinds)

	kinds, err = selectKinds(cfg, "noise")
	require.NoError(t, err)
	assert.Equal(t, []stress.Kind{stress.Noise}, kinds)

	_, err = selectKinds(cfg, "bogus")
	assert.Error(t, err)
}

func TestNewRunnerWithoutAPIKey(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.PICO.LLMEnabled = true
	cfg.Stressors.Conflict.LLMJudge = true

	r, err := newRunner(nil, cfg, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, r.Judge)
	assert.IsType(t, pico.HeuristicExtractor{}, r.Extractor)
}

func TestNewRunnerWithAPIKey(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.PICO.LLMEnabled = true
	cfg.Judge.APIKey = "sk-test"

	r, err := newRunner(nil, cfg, discardLogger())
	require.NoError(t, err)
	assert.NotNil(t, r.Judge)
	assert.IsType(t, &pico.RemoteJudgeExtractor{}, r.Extractor)
}

func TestExecuteRunWritesPredictions(t *testing.T) {
	cfg := types.DefaultPipelineConfig()
	cfg.Paths.RunsDir = t.TempDir()

	questions := []types.Question{{ID: "q1", Body: "a"}, {ID: "q2", Body: "b"}}
	fn := func(_ context.Context, q types.Question) (types.Prediction, error) {
		if q.ID == "q2" {
			return types.Prediction{}, errors.New("boom")
		}
		return types.Prediction{QuestionID: q.ID}, nil
	}

	var out bytes.Buffer
	err := executeRun(context.Background(), questions, fn, cfg, "baseline_test", &out, discardLogger())
	assert.ErrorContains(t, err, "1 question(s) failed")
	assert.Contains(t, out.String(), "1 succeeded, 1 failed")

	_, statErr := os.Stat(filepath.Join(cfg.Paths.RunsDir, "baseline_test", runner.PredictionsFile))
	assert.NoError(t, statErr)
}

func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "pmids.json")
	require.NoError(t, writeJSONFile(path, []string{"123456"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"123456\"\n]\n", string(data))
}
