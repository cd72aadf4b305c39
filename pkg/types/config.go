// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the fixed per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "biorag-stress/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetrievalConfig holds run-level BM25 parameters.
type RetrievalConfig struct {
	// K1 controls term-frequency saturation (default 1.2).
	K1 float64 `json:"bm25_k1" yaml:"bm25_k1" mapstructure:"bm25_k1"`

	// B controls document-length normalization strength (default 0.75).
	B float64 `json:"bm25_b" yaml:"bm25_b" mapstructure:"bm25_b"`

	// TopK is the number of documents retrieved per question (default 10).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`
}

// SnippetConfig holds evidence selection settings.
type SnippetConfig struct {
	// MaxSentencesPerDoc caps the sentences taken from each document (default 50).
	MaxSentencesPerDoc int `json:"max_sentences_per_doc" yaml:"max_sentences_per_doc" mapstructure:"max_sentences_per_doc"`

	// SnippetK bounds the selected evidence set (default 10).
	SnippetK int `json:"snippet_k" yaml:"snippet_k" mapstructure:"snippet_k"`

	// DiversityLambda disables near-duplicate filtering when >= 1.0 (default 0.7).
	DiversityLambda float64 `json:"diversity_lambda" yaml:"diversity_lambda" mapstructure:"diversity_lambda"`
}

// NoiseConfig configures distractor injection.
type NoiseConfig struct {
	Enabled     bool  `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	DistractorK int   `json:"distractor_k" yaml:"distractor_k" mapstructure:"distractor_k"`
	Seed        int64 `json:"seed" yaml:"seed" mapstructure:"seed"`
}

// ConflictConfig configures contradiction detection.
type ConflictConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// SimilarityThreshold is the exclusive cosine bound for candidate pairs.
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	// LLMJudge asks the remote judge to confirm each candidate.
	LLMJudge bool `json:"llm_judge" yaml:"llm_judge" mapstructure:"llm_judge"`
}

// UnanswerableConfig configures supporting-evidence removal.
type UnanswerableConfig struct {
	Enabled    bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	RemoveTopN int  `json:"remove_top_n" yaml:"remove_top_n" mapstructure:"remove_top_n"`
}

// PICOMismatchConfig configures PICO mismatch scoring.
type PICOMismatchConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MismatchThreshold flags a prediction when the mean mismatch reaches it.
	MismatchThreshold float64 `json:"mismatch_threshold" yaml:"mismatch_threshold" mapstructure:"mismatch_threshold"`
}

// StressConfig groups the four stressors.
type StressConfig struct {
	Noise        NoiseConfig        `json:"noise" yaml:"noise" mapstructure:"noise"`
	Conflict     ConflictConfig     `json:"conflict" yaml:"conflict" mapstructure:"conflict"`
	Unanswerable UnanswerableConfig `json:"unanswerable" yaml:"unanswerable" mapstructure:"unanswerable"`
	PICOMismatch PICOMismatchConfig `json:"pico_mismatch" yaml:"pico_mismatch" mapstructure:"pico_mismatch"`
}

// PICOConfig selects the PICO extractor variant.
type PICOConfig struct {
	// LLMEnabled routes extraction through the remote judge first.
	LLMEnabled bool `json:"llm_enabled" yaml:"llm_enabled" mapstructure:"llm_enabled"`
}

// JudgeConfig holds settings for the optional remote language-model judge.
type JudgeConfig struct {
	// Model is the chat model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is loaded from secrets or the environment, never from the config file.
	APIKey string `json:"-" yaml:"-" mapstructure:"-"`

	// Timeout bounds each judge call; there is no retry (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// PubMedConfig holds settings for the NCBI E-utilities fetcher.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// RateLimit is the maximum number of requests per second (default 3).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// BatchSize is the number of PMIDs fetched before the cache is flushed (default 50).
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// Email and APIKey identify the caller to NCBI. Loaded from secrets.
	Email  string `json:"-" yaml:"-" mapstructure:"-"`
	APIKey string `json:"-" yaml:"-" mapstructure:"-"`
}

// PathsConfig holds output locations.
type PathsConfig struct {
	// RunsDir is the parent directory of run directories (default "runs").
	RunsDir string `json:"runs_dir" yaml:"runs_dir" mapstructure:"runs_dir"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// PipelineConfig groups all stage configurations for a run.
type PipelineConfig struct {
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Snippets  SnippetConfig   `json:"snippets" yaml:"snippets" mapstructure:"snippets"`
	Stressors StressConfig    `json:"stressors" yaml:"stressors" mapstructure:"stressors"`
	PICO      PICOConfig      `json:"pico" yaml:"pico" mapstructure:"pico"`
	Judge     JudgeConfig     `json:"judge" yaml:"judge" mapstructure:"judge"`
	PubMed    PubMedConfig    `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	Paths     PathsConfig     `json:"paths" yaml:"paths" mapstructure:"paths"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`

	// Workers is the number of questions processed concurrently (default 1).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`
}

// DefaultPipelineConfig returns the configuration used when no file or
// environment override is present.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Retrieval: RetrievalConfig{K1: 1.2, B: 0.75, TopK: 10},
		Snippets:  SnippetConfig{MaxSentencesPerDoc: 50, SnippetK: 10, DiversityLambda: 0.7},
		Stressors: StressConfig{
			Noise:        NoiseConfig{Enabled: true, DistractorK: 5, Seed: 13},
			Conflict:     ConflictConfig{Enabled: true, SimilarityThreshold: 0.3},
			Unanswerable: UnanswerableConfig{Enabled: true, RemoveTopN: 2},
			PICOMismatch: PICOMismatchConfig{Enabled: true, MismatchThreshold: 0.7},
		},
		Judge: JudgeConfig{Model: "gpt-4o-mini", Timeout: 30 * time.Second},
		PubMed: PubMedConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "biorag-stress/0.1"},
			RateLimit:  3,
			BatchSize:  50,
		},
		Paths:   PathsConfig{RunsDir: "runs"},
		Logging: LoggingConfig{Level: "info"},
		Workers: 1,
	}
}
