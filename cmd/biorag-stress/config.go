// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/biorag-stress/pkg/types"
)

// setDefaults registers every configuration key so file values and
// BIORAG_* environment variables override them individually.
func setDefaults(v *viper.Viper, d types.PipelineConfig) {
	v.SetDefault("retrieval.bm25_k1", d.Retrieval.K1)
	v.SetDefault("retrieval.bm25_b", d.Retrieval.B)
	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)

	v.SetDefault("snippets.max_sentences_per_doc", d.Snippets.MaxSentencesPerDoc)
	v.SetDefault("snippets.snippet_k", d.Snippets.SnippetK)
	v.SetDefault("snippets.diversity_lambda", d.Snippets.DiversityLambda)

	s := d.Stressors
	v.SetDefault("stressors.noise.enabled", s.Noise.Enabled)
	v.SetDefault("stressors.noise.distractor_k", s.Noise.DistractorK)
	v.SetDefault("stressors.noise.seed", s.Noise.Seed)
	v.SetDefault("stressors.conflict.enabled", s.Conflict.Enabled)
	v.SetDefault("stressors.conflict.similarity_threshold", s.Conflict.SimilarityThreshold)
	v.SetDefault("stressors.conflict.llm_judge", s.Conflict.LLMJudge)
	v.SetDefault("stressors.unanswerable.enabled", s.Unanswerable.Enabled)
	v.SetDefault("stressors.unanswerable.remove_top_n", s.Unanswerable.RemoveTopN)
	v.SetDefault("stressors.pico_mismatch.enabled", s.PICOMismatch.Enabled)
	v.SetDefault("stressors.pico_mismatch.mismatch_threshold", s.PICOMismatch.MismatchThreshold)

	v.SetDefault("pico.llm_enabled", d.PICO.LLMEnabled)

	v.SetDefault("judge.model", d.Judge.Model)
	v.SetDefault("judge.base_url", d.Judge.BaseURL)
	v.SetDefault("judge.timeout", d.Judge.Timeout)

	v.SetDefault("pubmed.timeout", d.PubMed.Timeout)
	v.SetDefault("pubmed.user_agent", d.PubMed.UserAgent)
	v.SetDefault("pubmed.rate_limit", d.PubMed.RateLimit)
	v.SetDefault("pubmed.batch_size", d.PubMed.BatchSize)

	v.SetDefault("paths.runs_dir", d.Paths.RunsDir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("workers", d.Workers)
}

// decodeConfig unmarshals the settings held by v.
func decodeConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Show prints the configuration after defaults, the config file, and
BIORAG_* environment overrides are applied. Credentials are never printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
