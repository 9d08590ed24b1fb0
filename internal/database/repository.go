package database

import (
	"context"
	"fmt"
	"time"

	"go-joblog-automation/internal/models"
	"go-joblog-automation/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository keeps the dataset in a Postgres table.
type Repository struct {
	db     *pgxpool.Pool
	layout models.Layout
}

func ConnectDB(ctx context.Context, connString string, layout models.Layout) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 2
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// PgBouncer in transaction mode does not support prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	r := &Repository{db: pool, layout: layout}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (r *Repository) Describe() string { return "postgres:job_records" }

// advisory lock id shared by every run writing job_records
const advisoryLockKey int64 = 0x6a6f626c6f67

// Lock holds a session advisory lock on a dedicated connection until unlock.
func (r *Repository) Lock(ctx context.Context) (func() error, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		var ok bool
		if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", advisoryLockKey).Scan(&ok); err != nil {
			conn.Release()
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrLocked, ctx.Err())
			}
			return nil, fmt.Errorf("failed to take advisory lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			conn.Release()
			return nil, fmt.Errorf("%w: %v", store.ErrLocked, ctx.Err())
		case <-ticker.C:
		}
	}

	return func() error {
		defer conn.Release()
		_, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockKey)
		return err
	}, nil
}

func (r *Repository) migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS job_records (
			seq          INTEGER NOT NULL,
			timestamp    TEXT NOT NULL DEFAULT '',
			job_id       TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			company      TEXT NOT NULL DEFAULT '',
			company_link TEXT NOT NULL DEFAULT '',
			date         TEXT NOT NULL DEFAULT '',
			date_text    TEXT NOT NULL DEFAULT '',
			link         TEXT NOT NULL DEFAULT '',
			description  TEXT
		)`)
	if err != nil {
		return fmt.Errorf("failed to create job_records: %w", err)
	}
	return nil
}

var recordColumns = []string{"seq", "timestamp", "job_id", "title", "company", "company_link", "date", "date_text", "link", "description"}

// Load returns all rows in saved order; an empty table reads as store.ErrNotFound.
func (r *Repository) Load(ctx context.Context) (models.Dataset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT timestamp, job_id, title, company, company_link, date, date_text, link, description
		FROM job_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query job_records: %v", store.ErrCorruptDataset, err)
	}
	defer rows.Close()

	var ds models.Dataset
	for rows.Next() {
		var rec models.JobRecord
		if err := rows.Scan(&rec.Timestamp, &rec.JobID, &rec.Title, &rec.Company, &rec.CompanyLink, &rec.Date, &rec.DateText, &rec.Link, &rec.Description); err != nil {
			return nil, fmt.Errorf("%w: failed to scan job record: %v", store.ErrCorruptDataset, err)
		}
		ds = append(ds, r.layout.Project(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorruptDataset, err)
	}
	if len(ds) == 0 {
		return nil, store.ErrNotFound
	}
	return ds, nil
}

// Save replaces the table content inside one transaction using COPY.
func (r *Repository) Save(ctx context.Context, ds models.Dataset) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM job_records"); err != nil {
		return fmt.Errorf("failed to clear job_records: %w", err)
	}

	rows := make([][]any, 0, len(ds))
	for i, rec := range ds {
		p := r.layout.Project(rec)
		rows = append(rows, []any{i, p.Timestamp, p.JobID, p.Title, p.Company, p.CompanyLink, p.Date, p.DateText, p.Link, p.Description})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"job_records"}, recordColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("failed to copy job records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit job records: %w", err)
	}
	return nil
}
