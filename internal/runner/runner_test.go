package runner

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-joblog-automation/internal/engine"
	"go-joblog-automation/internal/engine/enginetest"
	"go-joblog-automation/internal/filter"
	"go-joblog-automation/internal/merge"
	"go-joblog-automation/internal/models"
	"go-joblog-automation/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	jobs     []models.JobRecord
	statuses []string
	errs     []error
	fail     error
}

func (f *fakeNotifier) SendStatus(m string) error {
	f.statuses = append(f.statuses, m)
	return f.fail
}

func (f *fakeNotifier) SendError(err error) error {
	f.errs = append(f.errs, err)
	return f.fail
}

func (f *fakeNotifier) SendJob(j models.JobRecord) error {
	f.jobs = append(f.jobs, j)
	return f.fail
}

func fixedClock() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) }

func newRunner(t *testing.T, script []engine.Event, n Notifier) (*Runner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "outputs", "jobs_log.csv")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := New(Deps{
		Engine:    &enginetest.Fake{Script: script},
		Queries:   []engine.Query{{Keywords: "Data Engineer", Options: engine.QueryOptions{Locations: []string{"Germany"}}}},
		Filter:    filter.NewKeywordFilter(filter.DefaultKeywords),
		Merger:    merge.NewMergeStore(store.NewFileStore(path, 0, models.LayoutLatest), models.LayoutLatest, logger),
		Target:    path,
		Notifier:  n,
		MaxNotify: 1,
		Logger:    logger,
		Clock:     fixedClock,
	})
	return r, path
}

func TestRun_FiltersAndSaves(t *testing.T) {
	notifier := &fakeNotifier{}
	r, path := newRunner(t, []engine.Event{
		enginetest.Posting("1", "Data Engineer", "We offer relocation support"),
		enginetest.Posting("2", "Data Engineer", "Remote position"),
		enginetest.PostingNoDescription("3", "Data Engineer"),
		engine.ErrorEvent(errors.New("job 4: timeout")),
		enginetest.Posting("5", "Senior Data Engineer", "VISA sponsorship available"),
		engine.MetricsEvent(engine.Metrics{Processed: 4, Failed: 1}),
	}, notifier)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	_, err = uuid.Parse(sum.RunID)
	assert.NoError(t, err)
	assert.Equal(t, 4, sum.Collected)
	assert.Equal(t, 2, sum.Qualified)
	assert.Equal(t, 1, sum.EngineErrors)
	assert.Equal(t, 2, sum.Result.Added)
	assert.Equal(t, "✅ Saved 2 new filtered jobs to "+path+" (2 total)", sum.Line(path))

	ds, err := store.NewFileStore(path, 0, models.LayoutLatest).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "1", ds[0].JobID)
	assert.Equal(t, "2025-06-01T08:00:00.000000Z", ds[0].Timestamp)

	assert.Len(t, notifier.jobs, 1)
	assert.Equal(t, []string{sum.Line(path)}, notifier.statuses)
}

func TestRun_NegativeMaxNotifySendsNoJobs(t *testing.T) {
	notifier := &fakeNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "jobs_log.csv")
	r := New(Deps{
		Engine:    &enginetest.Fake{Script: []engine.Event{enginetest.Posting("1", "Data Engineer", "visa support")}},
		Merger:    merge.NewMergeStore(store.NewFileStore(path, 0, models.LayoutLatest), models.LayoutLatest, logger),
		Target:    path,
		Notifier:  notifier,
		MaxNotify: -3,
		Logger:    logger,
	})

	var sum Summary
	var err error
	require.NotPanics(t, func() { sum, err = r.Run(context.Background()) })
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Result.Added)
	assert.Empty(t, notifier.jobs)
	assert.Len(t, notifier.statuses, 1)
}

func TestRun_NothingQualifiesLeavesFileAlone(t *testing.T) {
	r, path := newRunner(t, []engine.Event{
		enginetest.Posting("2", "Data Engineer", "Remote position"),
	}, nil)

	sum, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, sum.Result.Skipped)
	assert.Equal(t, "ℹ️ No new qualifying rows; "+path+" left untouched", sum.Line(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_CancelledStillSavesCollected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	eng := &cancellingEngine{cancel: cancel}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "jobs_log.csv")
	r := New(Deps{
		Engine: eng,
		Merger: merge.NewMergeStore(store.NewFileStore(path, 0, models.LayoutLatest), models.LayoutLatest, logger),
		Logger: logger,
	})

	sum, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Result.Added)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visa-job")
}

// cancellingEngine emits one qualifying posting, then cancels the run.
type cancellingEngine struct {
	cancel context.CancelFunc
}

func (c *cancellingEngine) Name() string { return "cancelling" }

func (c *cancellingEngine) Events(ctx context.Context, _ []engine.Query) iter.Seq[engine.Event] {
	return func(yield func(engine.Event) bool) {
		if !yield(enginetest.Posting("visa-job", "Data Engineer", "visa")) {
			return
		}
		c.cancel()
		if yield(engine.ErrorEvent(ctx.Err())) {
			yield(engine.EndEvent())
		}
	}
}

func TestRun_MergeFailureIsReported(t *testing.T) {
	notifier := &fakeNotifier{fail: errors.New("telegram down")}
	r, path := newRunner(t, []engine.Event{
		enginetest.Posting("1", "Data Engineer", "visa"),
	}, notifier)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("title,company\nx,y\n"), 0o644))

	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, store.ErrSchemaMismatch)
	require.Len(t, notifier.errs, 1)
	assert.Empty(t, notifier.statuses)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.True(t, strings.HasPrefix(string(data), "title,company"))
}
