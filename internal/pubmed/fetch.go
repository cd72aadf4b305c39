// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/biorag-stress/internal/httputil"
	"github.com/pdiddy/biorag-stress/internal/textutil"
	"github.com/pdiddy/biorag-stress/pkg/types"
)

// efetchURL is the E-utilities efetch endpoint. Package-level var for test substitution.
var efetchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"

const maxRetries = 3

var markup = regexp.MustCompile(`<[^>]+>`)

// Fetcher retrieves PubMed records one PMID at a time, pacing requests to
// stay under the configured rate limit.
type Fetcher struct {
	Client    *http.Client
	Email     string
	APIKey    string
	UserAgent string
	Delay     time.Duration
	Logger    *slog.Logger
}

// NewFetcher builds a Fetcher from cfg. The delay between requests is
// 1/RateLimit seconds.
func NewFetcher(cfg types.PubMedConfig, logger *slog.Logger) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	var delay time.Duration
	if cfg.RateLimit > 0 {
		delay = time.Duration(float64(time.Second) / cfg.RateLimit)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		Client:    &http.Client{Timeout: timeout},
		Email:     cfg.Email,
		APIKey:    cfg.APIKey,
		UserAgent: cfg.UserAgent,
		Delay:     delay,
		Logger:    logger,
	}
}

type articleSet struct {
	Articles []struct {
		Title    innerText   `xml:"MedlineCitation>Article>ArticleTitle"`
		Abstract []innerText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
	} `xml:"PubmedArticle"`
}

// innerText keeps an element's content including inline markup such as
// <i> or <sup>, which is stripped by String.
type innerText struct {
	Inner string `xml:",innerxml"`
}

func (t innerText) String() string {
	return textutil.NormalizeWhitespace(html.UnescapeString(markup.ReplaceAllString(t.Inner, "")))
}

// FetchRecord fetches one PMID. It returns nil without error when the
// record has neither title nor abstract.
func (f *Fetcher) FetchRecord(ctx context.Context, pmid string) (*types.Document, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", pmid)
	params.Set("retmode", "xml")
	if f.Email != "" {
		params.Set("email", f.Email)
	}
	if f.APIKey != "" {
		params.Set("api_key", f.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, efetchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, maxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling efetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("efetch returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var set articleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding efetch XML: %w", err)
	}
	return parseArticle(pmid, set), nil
}

func parseArticle(pmid string, set articleSet) *types.Document {
	for _, a := range set.Articles {
		title := a.Title.String()
		var parts []string
		for _, p := range a.Abstract {
			if s := p.String(); s != "" {
				parts = append(parts, s)
			}
		}
		abstract := strings.Join(parts, " ")
		if title == "" && abstract == "" {
			continue
		}
		return &types.Document{
			PMID:     pmid,
			Title:    title,
			Abstract: abstract,
			Text:     textutil.NormalizeWhitespace(title + " " + abstract),
		}
	}
	return nil
}

// FetchSummary holds counts from a fetch run.
type FetchSummary struct {
	Cached  int
	Fetched int
	Empty   int
	Failed  int
}

// Total returns the number of PMIDs considered.
func (s FetchSummary) Total() int {
	return s.Cached + s.Fetched + s.Empty + s.Failed
}

// HasFailures reports whether any PMID failed to fetch.
func (s FetchSummary) HasFailures() bool {
	return s.Failed > 0
}

// FetchMissing fetches every PMID not already cached, in input order, and
// writes records to the cache after each batch of batchSize. Per-PMID
// failures are reported and skipped.
func (f *Fetcher) FetchMissing(ctx context.Context, cache *Cache, pmids []string, batchSize int, w io.Writer) (FetchSummary, error) {
	cached, err := cache.Get(ctx, pmids)
	if err != nil {
		return FetchSummary{}, err
	}

	var summary FetchSummary
	var missing []string
	seen := make(map[string]struct{}, len(pmids))
	for _, p := range pmids {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		if _, ok := cached[p]; ok {
			summary.Cached++
			continue
		}
		missing = append(missing, p)
	}
	fmt.Fprintf(w, "%d PMIDs cached, %d missing\n", summary.Cached, len(missing))

	if batchSize <= 0 {
		batchSize = 50
	}
	for start := 0; start < len(missing); start += batchSize {
		batch := missing[start:min(start+batchSize, len(missing))]
		var records []types.Document
		for i, pmid := range batch {
			if start+i > 0 {
				if err := f.wait(ctx); err != nil {
					return summary, err
				}
			}
			doc, err := f.FetchRecord(ctx, pmid)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return summary, ctx.Err()
				}
				f.Logger.Warn("failed to fetch PMID", "pmid", pmid, "error", err)
				fmt.Fprintf(w, "failed  %s: %v\n", pmid, err)
				summary.Failed++
			case doc == nil:
				fmt.Fprintf(w, "empty   %s\n", pmid)
				summary.Empty++
			default:
				records = append(records, *doc)
				summary.Fetched++
			}
		}
		if err := cache.Put(ctx, records); err != nil {
			return summary, err
		}
		fmt.Fprintf(w, "cached batch of %d records (%d/%d)\n", len(records), min(start+batchSize, len(missing)), len(missing))
	}
	return summary, nil
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.Delay):
		return nil
	}
}
