package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-joblog-automation/internal/models"
	"go-joblog-automation/internal/store"
)

// Result describes one Apply call.
type Result struct {
	Batch        int  // rows offered
	Added        int  // rows whose job_id was not stored before (unkeyed: Batch)
	Total        int  // rows persisted after the merge
	Bootstrapped bool // nothing was stored before
	Skipped      bool // empty batch, no I/O performed

	AddedRecords models.Dataset
}

// MergeStore applies batches to a Store under a layout.
type MergeStore struct {
	store  store.Store
	layout models.Layout
	logger *slog.Logger
}

func NewMergeStore(s store.Store, layout models.Layout, logger *slog.Logger) *MergeStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeStore{store: s, layout: layout, logger: logger}
}

// Apply merges batch into the stored dataset and saves it back.
// An empty batch touches nothing. A dataset that fails to load aborts the
// merge so a damaged file is never replaced by a single run's rows.
func (m *MergeStore) Apply(ctx context.Context, batch models.Dataset) (Result, error) {
	res := Result{Batch: len(batch)}
	if len(batch) == 0 {
		res.Skipped = true
		m.logger.Info("ℹ️ No new qualifying rows, dataset left untouched", "dataset", store.Describe(m.store))
		return res, nil
	}

	if l, ok := m.store.(store.Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return res, err
		}
		defer func() {
			if err := unlock(); err != nil {
				m.logger.Warn("⚠️ Failed to release dataset lock", "error", err)
			}
		}()
	}

	existing, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.Bootstrapped = true
		m.logger.Info("🆕 No dataset yet, starting a new one", "dataset", store.Describe(m.store))
	case err != nil:
		return res, fmt.Errorf("load dataset: %w", err)
	default:
		m.logger.Info("📋 Loaded dataset", "dataset", store.Describe(m.store), "rows", len(existing))
	}

	merged := Merge(existing, batch, m.layout)
	res.Total = len(merged)
	res.AddedRecords = m.added(existing, batch)
	res.Added = len(res.AddedRecords)

	if err := m.store.Save(ctx, merged); err != nil {
		return res, fmt.Errorf("save dataset: %w", err)
	}
	m.logger.Info("💾 Saved dataset", "dataset", store.Describe(m.store), "batch", res.Batch, "added", res.Added, "total", res.Total)
	return res, nil
}

// added lists batch rows that introduce a job_id unseen before this run,
// once per job_id, newest copy. Unkeyed layouts count every row.
func (m *MergeStore) added(existing, batch models.Dataset) models.Dataset {
	if !m.layout.Keyed {
		return batch
	}
	known := existing.JobIDs()
	var out models.Dataset
	for _, r := range Merge(nil, batch, m.layout) {
		if r.JobID == "" {
			out = append(out, r)
			continue
		}
		if _, ok := known[r.JobID]; !ok {
			out = append(out, r)
		}
	}
	return out
}
