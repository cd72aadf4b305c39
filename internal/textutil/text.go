// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textutil holds the text primitives shared by retrieval, snippet
// selection, PICO scoring, and evaluation: whitespace normalization,
// tokenization, sentence segmentation, and per-call TF-IDF vector spaces.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// NormalizeWhitespace collapses every whitespace run to a single space and
// trims the result.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize returns the lower-cased ASCII alphanumeric runs of s. The same
// tokenizer indexes the corpus and parses queries.
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}

// SplitSentences segments s after '.', '!' or '?' when the punctuation is
// followed by whitespace. Empty pieces are dropped.
func SplitSentences(s string) []string {
	s = NormalizeWhitespace(s)
	if s == "" {
		return nil
	}

	var sentences []string
	runes := []rune(s)
	start := 0
	for i := 0; i < len(runes)-1; i++ {
		switch runes[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if piece := strings.TrimSpace(string(runes[start : i+1])); piece != "" {
			sentences = append(sentences, piece)
		}
		start = i + 1
	}
	if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
		sentences = append(sentences, piece)
	}
	return sentences
}
