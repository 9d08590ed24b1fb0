// Package engine defines the contract between the run and a job-board scraping engine.
// An engine produces a lazy, finite stream of events that ends with a single End event.
package engine

import (
	"context"
	"fmt"
	"iter"
)

// EventKind tags an Event.
type EventKind int

const (
	KindData EventKind = iota + 1
	KindMetrics
	KindError
	KindEnd
)

func (k EventKind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindMetrics:
		return "metrics"
	case KindError:
		return "error"
	case KindEnd:
		return "end"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// EventData is one posting as the engine saw it.
type EventData struct {
	Query       string
	Location    string
	JobID       string
	Title       string
	Company     string
	CompanyLink string
	Place       string
	Date        string
	DateText    string
	Link        string
	// ApplyLink is only filled when the query asks for it.
	ApplyLink   string
	Description *string
}

// Metrics is the engine's running tally for one query/location pair.
type Metrics struct {
	Processed int
	Failed    int
	Missed    int
	Skipped   int
}

func (m Metrics) String() string {
	return fmt.Sprintf("{processed: %d, failed: %d, missed: %d, skipped: %d}", m.Processed, m.Failed, m.Missed, m.Skipped)
}

// Event is a single item of an engine stream. Only the field matching Kind is set.
type Event struct {
	Kind    EventKind
	Data    *EventData
	Metrics *Metrics
	Err     error
}

func DataEvent(d EventData) Event { return Event{Kind: KindData, Data: &d} }
func MetricsEvent(m Metrics) Event { return Event{Kind: KindMetrics, Metrics: &m} }
func ErrorEvent(err error) Event { return Event{Kind: KindError, Err: err} }
func EndEvent() Event { return Event{Kind: KindEnd} }

// Engine runs the configured queries and streams what it finds.
// Events blocks the consumer only while ranging; an engine-level failure is
// reported as an Error event followed by End, never as a panic.
type Engine interface {
	Name() string
	Events(ctx context.Context, queries []Query) iter.Seq[Event]
}
