// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus reads and writes the newline-delimited JSON corpus that
// the retriever indexes, and materializes it from the PubMed cache.
package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/biorag-stress/internal/pubmed"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// Load reads a JSONL corpus. Blank lines are skipped; the first malformed
// line aborts with its line number.
func Load(path string) ([]types.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a JSONL corpus from r.
func Read(r io.Reader) ([]types.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var docs []types.Document
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var d types.Document
		if err := json.Unmarshal([]byte(text), &d); err != nil {
			return nil, fmt.Errorf("corpus line %d: %w", line, err)
		}
		d.Score = 0
		docs = append(docs, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return docs, nil
}

// Write writes docs as JSONL to path, creating parent directories.
func Write(path string, docs []types.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating corpus directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating corpus %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, d := range docs {
		d.Score = 0
		if err := enc.Encode(d); err != nil {
			f.Close()
			return fmt.Errorf("encoding %s: %w", d.PMID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing corpus: %w", err)
	}
	return f.Close()
}

// BuildFromCache writes every cached record to out and returns the count.
func BuildFromCache(ctx context.Context, cache *pubmed.Cache, out string) (int, error) {
	docs, err := cache.All(ctx)
	if err != nil {
		return 0, err
	}
	if err := Write(out, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}
