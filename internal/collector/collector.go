// Package collector turns an engine's event stream into an in-memory buffer of JobRecords.
package collector

import (
	"context"
	"log/slog"
	"time"

	"go-joblog-automation/internal/engine"
	"go-joblog-automation/internal/models"
)

// Buffer is the run-owned, append-only list of collected records.
type Buffer struct {
	records models.Dataset
}

func (b *Buffer) Append(r models.JobRecord) { b.records = append(b.records, r) }

func (b *Buffer) Len() int { return len(b.records) }

// Records returns the collected records in arrival order.
func (b *Buffer) Records() models.Dataset { return b.records }

// Stats summarizes what the engine pushed during a run.
type Stats struct {
	Records int
	Errors  int
	Ended   bool
	Metrics engine.Metrics // last metrics seen
}

type Collector struct {
	clock  func() time.Time
	logger *slog.Logger
}

func New(logger *slog.Logger, clock func() time.Time) *Collector {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{clock: clock, logger: logger}
}

// Collect runs eng over queries and blocks until the stream ends.
// Engine errors are logged and counted; records already buffered are kept.
func (c *Collector) Collect(ctx context.Context, eng engine.Engine, queries []engine.Query) (*Buffer, Stats) {
	buf := &Buffer{}
	var st Stats

	c.logger.Info("🚀 Starting engine", "engine", eng.Name(), "queries", len(queries))

	ds := engine.Dispatch(eng.Events(ctx, queries), engine.Handlers{
		OnData: func(d engine.EventData) {
			buf.Append(c.record(d))
			c.logger.Debug("✅ Collected", "job_id", d.JobID, "title", d.Title, "company", d.Company)
		},
		OnMetrics: func(m engine.Metrics) {
			st.Metrics = m
			c.logger.Info("📊 Engine metrics", "metrics", m.String())
		},
		OnError: func(err error) {
			c.logger.Warn("⚠️ Engine error", "error", err)
		},
		OnEnd: func() {
			c.logger.Info("🏁 Scraping complete", "collected", buf.Len())
		},
	})

	st.Records = buf.Len()
	st.Errors = ds.Errors
	st.Ended = ds.Ended
	return buf, st
}

func (c *Collector) record(d engine.EventData) models.JobRecord {
	return models.JobRecord{
		Timestamp:   c.clock().UTC().Format(models.TimestampLayout),
		JobID:       d.JobID,
		Title:       d.Title,
		Company:     d.Company,
		CompanyLink: d.CompanyLink,
		Date:        d.Date,
		DateText:    d.DateText,
		Link:        d.Link,
		Description: d.Description,
	}
}
