// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key name and the trimmed
// contents are the value. Values missing from the directory fall back to
// environment variables.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key files and the environment variables that back them.
const (
	OpenAIAPIKey = "openai-api-key"
	NCBIEmail    = "ncbi-email"
	NCBIAPIKey   = "ncbi-api-key"
)

var envFallback = map[string]string{
	OpenAIAPIKey: "OPENAI_API_KEY",
	NCBIEmail:    "NCBI_EMAIL",
	NCBIAPIKey:   "NCBI_API_KEY",
}

// Store is a loaded set of secrets.
type Store map[string]string

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (Store, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Get returns the secret for key, falling back to its environment variable.
func (s Store) Get(key string) string {
	if v := s[key]; v != "" {
		return v
	}
	if env, ok := envFallback[key]; ok {
		return strings.TrimSpace(os.Getenv(env))
	}
	return ""
}
