// Package enginetest provides scripted engines for tests.
package enginetest

import (
	"context"
	"iter"

	"go-joblog-automation/internal/engine"
)

// Fake replays Script, appending End when the script does not end on its own.
type Fake struct {
	Script []engine.Event

	// Queries records what the last Events call received.
	Queries []engine.Query
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Events(ctx context.Context, queries []engine.Query) iter.Seq[engine.Event] {
	f.Queries = queries
	return func(yield func(engine.Event) bool) {
		for _, ev := range f.Script {
			if ctx.Err() != nil {
				if yield(engine.ErrorEvent(ctx.Err())) {
					yield(engine.EndEvent())
				}
				return
			}
			if !yield(ev) {
				return
			}
			if ev.Kind == engine.KindEnd {
				return
			}
		}
		yield(engine.EndEvent())
	}
}

// Posting is a shorthand for a data event carrying a description.
func Posting(id, title, description string) engine.Event {
	return engine.DataEvent(engine.EventData{
		JobID:       id,
		Title:       title,
		Company:     "Acme GmbH",
		Link:        "https://www.linkedin.com/jobs/view/" + id,
		Description: &description,
	})
}

// PostingNoDescription is a data event whose description is missing.
func PostingNoDescription(id, title string) engine.Event {
	return engine.DataEvent(engine.EventData{
		JobID: id,
		Title: title,
		Link:  "https://www.linkedin.com/jobs/view/" + id,
	})
}
