package engine

import (
	"fmt"
	"strings"
)

// TimeFilter limits results by posting recency.
type TimeFilter string

const (
	TimeAny   TimeFilter = "any"
	TimeDay   TimeFilter = "day"
	TimeWeek  TimeFilter = "week"
	TimeMonth TimeFilter = "month"
)

// TypeFilter limits results by employment type.
type TypeFilter string

const (
	TypeFullTime   TypeFilter = "full_time"
	TypePartTime   TypeFilter = "part_time"
	TypeContract   TypeFilter = "contract"
	TypeTemporary  TypeFilter = "temporary"
	TypeInternship TypeFilter = "internship"
	TypeVolunteer  TypeFilter = "volunteer"
	TypeOther      TypeFilter = "other"
)

// QueryOptions mirrors the search form of the job board.
type QueryOptions struct {
	Locations    []string
	Time         TimeFilter
	Types        []TypeFilter
	PageOffset   int
	Limit        int
	SkipPromoted bool
	ApplyLink    bool
}

// Query is one keyword search.
type Query struct {
	Keywords string
	Options  QueryOptions
}

// ParseTimeFilter accepts the configured spelling (case-insensitive). Empty means any.
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch f := TimeFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return TimeAny, nil
	case TimeAny, TimeDay, TimeWeek, TimeMonth:
		return f, nil
	}
	return "", fmt.Errorf("unknown time filter %q", s)
}

// ParseTypeFilter accepts the configured spelling; dashes and spaces read as underscores.
func ParseTypeFilter(s string) (TypeFilter, error) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch f := TypeFilter(norm); f {
	case TypeFullTime, TypePartTime, TypeContract, TypeTemporary, TypeInternship, TypeVolunteer, TypeOther:
		return f, nil
	}
	return "", fmt.Errorf("unknown type filter %q", s)
}
