//go:build mage

// Package main contains Mage build targets for biorag-stress developer tooling.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"data",
	"runs",
	".secrets",
}

// Init creates the project directory structure for the pipeline.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "biorag-stress"
	cmdPkg  = "./cmd/biorag-stress"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	out := binPath()
	if err := sh.RunV("go", "build", "-ldflags", "-X main.version="+version, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Pipeline steps read their inputs from DATASET (required), CORPUS, and
// DB, matching the CLI flag defaults.
func pipelineEnv() (dataset, corpus, db string, err error) {
	dataset = os.Getenv("DATASET")
	if dataset == "" {
		return "", "", "", fmt.Errorf("DATASET must point to a BioASQ-style JSON file")
	}
	corpus = envOr("CORPUS", "data/corpus.jsonl")
	db = envOr("DB", "data/pubmed.sqlite")
	return dataset, corpus, db, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Corpus validates the dataset, fetches the gold PMIDs, and builds the corpus.
func Corpus() error {
	mg.Deps(Init, Build)
	dataset, corpus, db, err := pipelineEnv()
	if err != nil {
		return err
	}
	pmids := "data/gold_pmids.json"
	steps := [][]string{
		{"validate", "--dataset", dataset},
		{"gold-pmids", "--dataset", dataset, "--out", pmids},
		{"fetch", "--pmids", pmids, "--db", db},
		{"corpus", "--db", db, "--out", corpus},
	}
	for _, args := range steps {
		if err := sh.RunV(binPath(), args...); err != nil {
			return err
		}
	}
	return nil
}

// Baseline runs the unperturbed pipeline.
func Baseline() error {
	mg.Deps(Init, Build)
	dataset, corpus, _, err := pipelineEnv()
	if err != nil {
		return err
	}
	return sh.RunV(binPath(), "baseline", "--dataset", dataset, "--corpus", corpus)
}

// Stress runs every enabled stressor.
func Stress() error {
	mg.Deps(Init, Build)
	dataset, corpus, _, err := pipelineEnv()
	if err != nil {
		return err
	}
	return sh.RunV(binPath(), "stress", "--dataset", dataset, "--corpus", corpus)
}

// Evaluate scores every run under runs/.
func Evaluate() error {
	mg.Deps(Build)
	dataset, _, _, err := pipelineEnv()
	if err != nil {
		return err
	}
	return sh.RunV(binPath(), "evaluate", "--dataset", dataset, "--runs-dir", envOr("RUNS_DIR", "runs"))
}

// All runs baseline, stress, and evaluate in order.
func All() {
	mg.SerialDeps(Baseline, Stress, Evaluate)
}

// Stats prints project metrics: Go production/test LOC and documentation word count.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	docWords, err := countDocWords(".")
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Words (documentation):           %d\n", docWords)
	return nil
}

// skipDir reports directories excluded from Stats.
func skipDir(name string) bool {
	return name != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "bin" || name == "data" || name == "runs")
}

// countGoLines counts non-blank lines in Go files. If testOnly is true only
// _test.go files are counted; otherwise only non-test files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) > 0 {
				total++
			}
		}
		return nil
	})
	return total, err
}

// countDocWords counts words in Markdown and YAML files.
func countDocWords(root string) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		switch filepath.Ext(path) {
		case ".md", ".yaml", ".yml":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		total += len(bytes.Fields(data))
		return nil
	})
	return total, err
}
