// Package linkedin scrapes LinkedIn's public job search through a browser tab.
package linkedin

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"go-joblog-automation/internal/engine"

	"golang.org/x/time/rate"
)

// DefaultPageSize is how far one search page moves the start offset.
const DefaultPageSize = 25

// Navigator loads a URL and returns its HTML.
type Navigator interface {
	Open(ctx context.Context, url string) (string, error)
}

type Options struct {
	// PageSize converts page_offset into a start offset.
	PageSize int
	// Limiter paces every request, search pages and postings alike.
	Limiter *rate.Limiter
	Logger  *slog.Logger
	// Clock resolves relative posting dates. Defaults to time.Now.
	Clock func() time.Time
}

type Engine struct {
	nav      Navigator
	pageSize int
	limiter  *rate.Limiter
	logger   *slog.Logger
	clock    func() time.Time
}

var _ engine.Engine = (*Engine)(nil)

func New(nav Navigator, opts Options) *Engine {
	e := &Engine{
		nav:      nav,
		pageSize: opts.PageSize,
		limiter:  opts.Limiter,
		logger:   opts.Logger,
		clock:    opts.Clock,
	}
	if e.pageSize <= 0 {
		e.pageSize = DefaultPageSize
	}
	if e.limiter == nil {
		e.limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	return e
}

// NewLimiter paces requests: requestsPerSecond wins when set, otherwise one
// request per slowMo. Both zero means unpaced.
func NewLimiter(slowMo time.Duration, requestsPerSecond float64) *rate.Limiter {
	switch {
	case requestsPerSecond > 0:
		return rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	case slowMo > 0:
		return rate.NewLimiter(rate.Every(slowMo), 1)
	}
	return rate.NewLimiter(rate.Inf, 1)
}

func (e *Engine) Name() string {
	return "LinkedIn"
}

// Events walks every query/location pair in order. Each pair ends with a
// Metrics event; the stream ends with End.
func (e *Engine) Events(ctx context.Context, queries []engine.Query) iter.Seq[engine.Event] {
	return func(yield func(engine.Event) bool) {
		for _, q := range queries {
			for _, loc := range q.Options.Locations {
				e.logger.Info("🔑 Processing query", slog.String("query", q.Keywords), slog.String("location", loc))

				m, ok := e.search(ctx, q, loc, yield)
				if !ok || !yield(engine.MetricsEvent(m)) {
					return
				}
				if err := ctx.Err(); err != nil {
					if yield(engine.ErrorEvent(err)) {
						yield(engine.EndEvent())
					}
					return
				}
			}
		}
		yield(engine.EndEvent())
	}
}

// search returns false when the consumer stopped the stream.
func (e *Engine) search(ctx context.Context, q engine.Query, loc string, yield func(engine.Event) bool) (engine.Metrics, bool) {
	var m engine.Metrics
	limit := q.Options.Limit
	start := q.Options.PageOffset * e.pageSize
	seen := make(map[string]struct{})

	for limit <= 0 || m.Processed < limit {
		if ctx.Err() != nil {
			return m, true
		}

		page, err := e.open(ctx, SearchURL(q, loc, start))
		if err != nil {
			return m, yield(engine.ErrorEvent(fmt.Errorf("search %q in %s (start %d): %w", q.Keywords, loc, start, err)))
		}
		cards, err := ParseCards(page)
		if err != nil {
			return m, yield(engine.ErrorEvent(err))
		}
		if len(cards) == 0 {
			e.logger.Debug("📄 No more results", slog.String("query", q.Keywords), slog.String("location", loc), slog.Int("start", start))
			break
		}
		e.logger.Debug("📄 Found cards", slog.Int("count", len(cards)), slog.Int("start", start))

		for _, c := range cards {
			if limit > 0 && m.Processed >= limit {
				break
			}
			if c.Promoted && q.Options.SkipPromoted {
				m.Skipped++
				continue
			}
			if c.JobID == "" {
				m.Missed++
				continue
			}
			// result pages overlap
			if _, dup := seen[c.JobID]; dup {
				m.Skipped++
				continue
			}
			seen[c.JobID] = struct{}{}

			posting, err := e.posting(ctx, c.JobID)
			if err != nil {
				m.Failed++
				if !yield(engine.ErrorEvent(fmt.Errorf("job %s: %w", c.JobID, err))) {
					return m, false
				}
				if ctx.Err() != nil {
					return m, true
				}
				continue
			}

			data := c.eventData(q.Keywords, loc)
			data.Date = postedDate(c.Date, c.DateText, e.clock())
			if posting.HasDescription {
				data.Description = &posting.Description
			}
			if q.Options.ApplyLink {
				data.ApplyLink = posting.ApplyLink
			}
			if !yield(engine.DataEvent(data)) {
				return m, false
			}
			m.Processed++
		}
		start += len(cards)
	}
	return m, true
}

func (e *Engine) posting(ctx context.Context, jobID string) (Posting, error) {
	page, err := e.open(ctx, DetailURL(jobID))
	if err != nil {
		return Posting{}, err
	}
	return ParseDescription(page)
}

func (e *Engine) open(ctx context.Context, url string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return e.nav.Open(ctx, url)
}

func (c Card) eventData(query, location string) engine.EventData {
	return engine.EventData{
		Query:       query,
		Location:    location,
		JobID:       c.JobID,
		Title:       c.Title,
		Company:     c.Company,
		CompanyLink: c.CompanyLink,
		Place:       c.Place,
		Date:        c.Date,
		DateText:    c.DateText,
		Link:        c.Link,
	}
}
