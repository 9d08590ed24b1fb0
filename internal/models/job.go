package models

import (
	"strings"
	"time"
)

// TimestampLayout is the capture time format written by the collector.
// Fixed-width microseconds keep lexical and chronological order aligned.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Column names as they appear in the dataset header.
const (
	ColTimestamp   = "timestamp"
	ColJobID       = "job_id"
	ColTitle       = "title"
	ColCompany     = "company"
	ColCompanyLink = "company_link"
	ColDate        = "date"
	ColDateText    = "date_text"
	ColLink        = "link"
	ColDescription = "description"
)

// JobRecord is one flattened posting plus its capture time.
type JobRecord struct {
	Timestamp   string  `json:"timestamp"`
	JobID       string  `json:"job_id,omitempty"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	CompanyLink string  `json:"company_link,omitempty"`
	Date        string  `json:"date,omitempty"`
	DateText    string  `json:"date_text,omitempty"`
	Link        string  `json:"link"`
	Description *string `json:"description,omitempty"` // nil when the engine sent none
}

// Dataset is an ordered list of records, as persisted.
type Dataset []JobRecord

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// CapturedAt parses Timestamp. Naive timestamps (no zone) are read as UTC,
// which is what older datasets were written with. ok is false when nothing parses.
func (r JobRecord) CapturedAt() (t time.Time, ok bool) {
	s := strings.TrimSpace(r.Timestamp)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Field returns the value stored under a column name. A missing description reads as "".
func (r JobRecord) Field(col string) string {
	switch col {
	case ColTimestamp:
		return r.Timestamp
	case ColJobID:
		return r.JobID
	case ColTitle:
		return r.Title
	case ColCompany:
		return r.Company
	case ColCompanyLink:
		return r.CompanyLink
	case ColDate:
		return r.Date
	case ColDateText:
		return r.DateText
	case ColLink:
		return r.Link
	case ColDescription:
		if r.Description == nil {
			return ""
		}
		return *r.Description
	}
	return ""
}

// SetField stores v under a column name. Unknown columns are ignored.
func (r *JobRecord) SetField(col, v string) {
	switch col {
	case ColTimestamp:
		r.Timestamp = v
	case ColJobID:
		r.JobID = v
	case ColTitle:
		r.Title = v
	case ColCompany:
		r.Company = v
	case ColCompanyLink:
		r.CompanyLink = v
	case ColDate:
		r.Date = v
	case ColDateText:
		r.DateText = v
	case ColLink:
		r.Link = v
	case ColDescription:
		r.Description = &v
	}
}

// JobIDs returns the set of non-empty job ids in the dataset.
func (d Dataset) JobIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(d))
	for _, r := range d {
		if r.JobID != "" {
			ids[r.JobID] = struct{}{}
		}
	}
	return ids
}
