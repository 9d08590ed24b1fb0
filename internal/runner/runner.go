// Package runner wires one scheduled run: collect, filter, merge, notify.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-joblog-automation/internal/collector"
	"go-joblog-automation/internal/engine"
	"go-joblog-automation/internal/filter"
	"go-joblog-automation/internal/merge"
	"go-joblog-automation/internal/models"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultMergeTimeout bounds the save phase once collection is over.
	DefaultMergeTimeout = time.Minute
	// DefaultNotifyInterval keeps the bot under Telegram's per-chat limit.
	DefaultNotifyInterval = time.Second
)

// Notifier receives run results. Failures are logged, never fatal.
type Notifier interface {
	SendStatus(message string) error
	SendError(err error) error
	SendJob(job models.JobRecord) error
}

type Deps struct {
	Engine  engine.Engine
	Queries []engine.Query
	Filter  *filter.KeywordFilter
	Merger  *merge.MergeStore
	// Target names the dataset in summary lines.
	Target string

	Notifier Notifier
	// MaxNotify caps how many new postings are pushed to the notifier.
	MaxNotify int
	// NotifyInterval spaces notifier messages out.
	NotifyInterval time.Duration

	Logger *slog.Logger
	Clock  func() time.Time
	// MergeTimeout bounds the save phase. Zero means DefaultMergeTimeout.
	MergeTimeout time.Duration
}

type Runner struct {
	deps Deps
}

func New(deps Deps) *Runner {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Filter == nil {
		deps.Filter = filter.NewKeywordFilter(filter.DefaultKeywords)
	}
	if deps.MergeTimeout <= 0 {
		deps.MergeTimeout = DefaultMergeTimeout
	}
	deps.MaxNotify = max(deps.MaxNotify, 0)
	return &Runner{deps: deps}
}

// Summary is what one run did.
type Summary struct {
	RunID        string
	Collected    int
	Qualified    int
	EngineErrors int
	Result       merge.Result
}

// Line is the one-line report printed at the end of a run.
func (s Summary) Line(target string) string {
	if s.Result.Skipped {
		return fmt.Sprintf("ℹ️ No new qualifying rows; %s left untouched", target)
	}
	return fmt.Sprintf("✅ Saved %d new filtered jobs to %s (%d total)", s.Result.Added, target, s.Result.Total)
}

// Run performs one collection and merge. Rows collected before an engine
// error or a cancelled ctx are still merged.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := r.deps.Logger.With("run_id", sum.RunID)
	logger.Info("🚀 Starting run", "engine", r.deps.Engine.Name(), "queries", len(r.deps.Queries), "dataset", r.deps.Target)

	buf, st := collector.New(logger, r.deps.Clock).Collect(ctx, r.deps.Engine, r.deps.Queries)
	sum.Collected = st.Records
	sum.EngineErrors = st.Errors
	if !st.Ended {
		logger.Warn("⚠️ Engine stream stopped without an end event")
	}

	qualified := r.deps.Filter.Apply(buf.Records())
	sum.Qualified = len(qualified)
	logger.Info("🔍 Filtered postings", "collected", sum.Collected, "qualified", sum.Qualified, "keywords", r.deps.Filter.Keywords())

	// an interrupt during scraping should not lose what was collected
	mergeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.deps.MergeTimeout)
	defer cancel()

	res, err := r.deps.Merger.Apply(mergeCtx, qualified)
	sum.Result = res
	if err != nil {
		logger.Error("❌ Merge failed", "error", err)
		r.notifyError(logger, err)
		return sum, err
	}

	r.notify(ctx, logger, sum)
	logger.Info("🏁 Execution finished", "added", res.Added, "total", res.Total, "engine_errors", sum.EngineErrors)
	return sum, nil
}

func (r *Runner) notify(ctx context.Context, logger *slog.Logger, sum Summary) {
	n := r.deps.Notifier
	if n == nil {
		return
	}

	pace := rate.NewLimiter(rate.Inf, 1)
	if r.deps.NotifyInterval > 0 {
		pace = rate.NewLimiter(rate.Every(r.deps.NotifyInterval), 1)
	}

	jobs := sum.Result.AddedRecords
	if len(jobs) > r.deps.MaxNotify {
		jobs = jobs[:r.deps.MaxNotify]
	}
	for i, job := range jobs {
		if err := pace.Wait(ctx); err != nil {
			logger.Warn("⚠️ Stopped sending jobs", "sent", i, "error", err)
			break
		}
		if err := n.SendJob(job); err != nil {
			logger.Warn("⚠️ Failed to send job to Telegram", "job_id", job.JobID, "error", err)
		}
	}

	if err := n.SendStatus(sum.Line(r.deps.Target)); err != nil {
		logger.Warn("⚠️ Failed to send status to Telegram", "error", err)
	}
}

func (r *Runner) notifyError(logger *slog.Logger, err error) {
	if r.deps.Notifier == nil {
		return
	}
	if sendErr := r.deps.Notifier.SendError(err); sendErr != nil {
		logger.Warn("⚠️ Failed to send error to Telegram", "error", sendErr)
	}
}
