// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed fetches PubMed abstracts through NCBI E-utilities and
// caches them in a local SQLite database so repeated runs only fetch
// records they have not seen.
package pubmed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/biorag-stress/pkg/types"
)

// lookupChunk bounds the number of bound parameters per IN query.
const lookupChunk = 500

// Cache is the SQLite record cache.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path, creating parent
// directories and the schema as needed.
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pubmed (
			pmid TEXT PRIMARY KEY,
			title TEXT,
			abstract TEXT,
			text TEXT,
			fetched_at TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Get returns the cached records among pmids, keyed by PMID.
func (c *Cache) Get(ctx context.Context, pmids []string) (map[string]types.Document, error) {
	found := make(map[string]types.Document)
	for start := 0; start < len(pmids); start += lookupChunk {
		end := min(start+lookupChunk, len(pmids))
		chunk := pmids[start:end]

		args := make([]any, len(chunk))
		for i, p := range chunk {
			args[i] = p
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		rows, err := c.db.QueryContext(ctx,
			`SELECT pmid, title, abstract, text FROM pubmed WHERE pmid IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying cache: %w", err)
		}
		docs, err := scanDocuments(rows)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			found[d.PMID] = d
		}
	}
	return found, nil
}

// Put upserts records in one transaction.
func (c *Cache) Put(ctx context.Context, docs []types.Document) error {
	if len(docs) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pubmed (pmid, title, abstract, text, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pmid) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			text = excluded.text,
			fetched_at = excluded.fetched_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.PMID, d.Title, d.Abstract, d.Text, now); err != nil {
			return fmt.Errorf("caching %s: %w", d.PMID, err)
		}
	}
	return tx.Commit()
}

// All returns every cached record in insertion order.
func (c *Cache) All(ctx context.Context) ([]types.Document, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT pmid, title, abstract, text FROM pubmed ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying cache: %w", err)
	}
	return scanDocuments(rows)
}

// Count returns the number of cached records.
func (c *Cache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM pubmed`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache: %w", err)
	}
	return n, nil
}

func scanDocuments(rows *sql.Rows) ([]types.Document, error) {
	defer rows.Close()
	var docs []types.Document
	for rows.Next() {
		var d types.Document
		var title, abstract, text sql.NullString
		if err := rows.Scan(&d.PMID, &title, &abstract, &text); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		d.Title, d.Abstract, d.Text = title.String, abstract.String, text.String
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cache rows: %w", err)
	}
	return docs, nil
}
