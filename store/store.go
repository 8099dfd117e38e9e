// Package store persists Analyzer reports keyed by a content hash of the
// signal that produced them, so a caller re-analyzing the same file doesn't
// pay for a second STFT pass. Adapted from the teacher's db/postgres.go:
// same pgx/stdlib driver, same create-tables-on-connect and
// batched-upsert style, applied to a report cache instead of a song /
// fingerprint catalog.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"spectralveil/analyzer"
	"spectralveil/classifier"
)

// Cache wraps a Postgres connection pool used to store and retrieve
// Analyzer reports.
type Cache struct {
	db *sql.DB
}

// Open connects to Postgres via dsn and ensures the reports table exists.
func Open(dsn string) (*Cache, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: connecting to postgres: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("store: creating tables: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createTables(db *sql.DB) error {
	const createReportsTable = `
	CREATE TABLE IF NOT EXISTS reports (
		content_hash TEXT PRIMARY KEY,
		report_json JSONB NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_reports_status ON reports (status);
	`
	if _, err := db.Exec(createReportsTable); err != nil {
		return fmt.Errorf("creating reports table: %w", err)
	}
	return nil
}

// Get looks up a cached report by content hash. The bool return reports
// whether an entry was found.
func (c *Cache) Get(contentHash string) (analyzer.Report, bool, error) {
	var raw []byte
	err := c.db.QueryRow(`SELECT report_json FROM reports WHERE content_hash = $1`, contentHash).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return analyzer.Report{}, false, nil
		}
		return analyzer.Report{}, false, fmt.Errorf("store: querying report: %w", err)
	}
	var report analyzer.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return analyzer.Report{}, false, fmt.Errorf("store: decoding cached report: %w", err)
	}
	return report, true, nil
}

// Put upserts a report under the given content hash.
func (c *Cache) Put(contentHash string, report analyzer.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("store: encoding report: %w", err)
	}
	const upsert = `
	INSERT INTO reports (content_hash, report_json, status)
	VALUES ($1, $2, $3)
	ON CONFLICT (content_hash) DO UPDATE SET report_json = EXCLUDED.report_json, status = EXCLUDED.status
	`
	if _, err := c.db.Exec(upsert, contentHash, raw, string(report.Status)); err != nil {
		return fmt.Errorf("store: upserting report: %w", err)
	}
	return nil
}

// DeleteByStatus removes every cached report matching status, mirroring the
// teacher's DeleteCollection safety-gated cleanup operation scoped to a
// single column instead of an entire table.
func (c *Cache) DeleteByStatus(status classifier.Status) error {
	_, err := c.db.Exec(`DELETE FROM reports WHERE status = $1`, string(status))
	return err
}
