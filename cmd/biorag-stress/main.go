// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the biorag-stress CLI.
// Each pipeline step is a subcommand: validate, gold-pmids, fetch, corpus,
// baseline, stress, and evaluate.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/biorag-stress/internal/logging"
	"github.com/pdiddy/biorag-stress/internal/secrets"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

var rootCmd = &cobra.Command{
	Use:   "biorag-stress",
	Short: "Stress-test lexical retrieval and evidence selection for biomedical QA",
	Long: `biorag-stress runs a BM25 retrieval and evidence selection pipeline over a
local PubMed corpus, perturbs it with stressors (noise, conflict,
unanswerable, pico_mismatch), and scores every run against a BioASQ-style
gold dataset.

Typical order: validate, gold-pmids, fetch, corpus, baseline, stress, evaluate.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./biorag-stress.yaml or ~/.config/biorag-stress/config.yaml)")
}

func initConfig() {
	setDefaults(viper.GetViper(), types.DefaultPipelineConfig())

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("biorag-stress")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "biorag-stress"))
		}
	}

	viper.SetEnvPrefix("BIORAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the effective configuration and attaches credentials.
func loadConfig() (types.PipelineConfig, error) {
	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		return cfg, err
	}
	cfg.Judge.APIKey = loadedSecrets.Get(secrets.OpenAIAPIKey)
	cfg.PubMed.Email = loadedSecrets.Get(secrets.NCBIEmail)
	cfg.PubMed.APIKey = loadedSecrets.Get(secrets.NCBIAPIKey)
	return cfg, nil
}

// newLogger returns the stderr logger at the configured level.
func newLogger(cfg types.PipelineConfig) *slog.Logger {
	return logging.New(cfg.Logging.Level, os.Stderr)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
