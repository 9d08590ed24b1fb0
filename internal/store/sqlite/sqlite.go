// Package sqlite keeps the dataset in an embedded SQLite database keyed by job_id.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-joblog-automation/internal/models"
	"go-joblog-automation/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	path   string
	layout models.Layout
}

// Open opens (or creates) the database at path and migrates it.
func Open(ctx context.Context, path string, layout models.Layout) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // one writer
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	s := &Store{db: db, path: path, layout: layout}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Describe() string { return "sqlite:" + s.path }

// Lock keeps two runs from interleaving load and save on the same database file.
func (s *Store) Lock(ctx context.Context) (func() error, error) {
	return store.LockFile(ctx, s.path, 250*time.Millisecond)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS job_records (
  seq INTEGER NOT NULL,
  timestamp TEXT NOT NULL DEFAULT '',
  job_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  company TEXT NOT NULL DEFAULT '',
  company_link TEXT NOT NULL DEFAULT '',
  date TEXT NOT NULL DEFAULT '',
  date_text TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL DEFAULT '',
  description TEXT
);`,
		`CREATE INDEX IF NOT EXISTS idx_job_records_seq ON job_records(seq);`,
	}
	if s.layout.Keyed {
		stmts = append(stmts, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_job_records_job_id
ON job_records(job_id)
WHERE job_id != '';`)
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// Load returns rows in saved order. An empty table reads as store.ErrNotFound.
func (s *Store) Load(ctx context.Context) (models.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT timestamp, job_id, title, company, company_link, date, date_text, link, description
FROM job_records ORDER BY seq;`)
	if err != nil {
		return nil, fmt.Errorf("%w: query sqlite: %v", store.ErrCorruptDataset, err)
	}
	defer rows.Close()

	var ds models.Dataset
	for rows.Next() {
		var r models.JobRecord
		var desc sql.NullString
		if err := rows.Scan(&r.Timestamp, &r.JobID, &r.Title, &r.Company, &r.CompanyLink, &r.Date, &r.DateText, &r.Link, &desc); err != nil {
			return nil, fmt.Errorf("%w: scan sqlite row: %v", store.ErrCorruptDataset, err)
		}
		if desc.Valid {
			r.Description = &desc.String
		}
		ds = append(ds, s.layout.Project(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorruptDataset, err)
	}
	if len(ds) == 0 {
		return nil, store.ErrNotFound
	}
	return ds, nil
}

// Save replaces the table content in one transaction.
func (s *Store) Save(ctx context.Context, ds models.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM job_records;`); err != nil {
		return fmt.Errorf("clear job_records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO job_records (seq, timestamp, job_id, title, company, company_link, date, date_text, link, description)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range ds {
		r := s.layout.Project(rec)
		var desc sql.NullString
		if r.Description != nil {
			desc = sql.NullString{String: *r.Description, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, r.Timestamp, r.JobID, r.Title, r.Company, r.CompanyLink, r.Date, r.DateText, r.Link, desc); err != nil {
			return fmt.Errorf("insert job %q: %w", r.JobID, err)
		}
	}
	return tx.Commit()
}
