package linkedin

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	relativeRegex = regexp.MustCompile(`(?i)(\d+)\s*(minute|min|hour|hr|day|week|month|year)s?\s+ago`)
)

// postedDate returns the posting date as YYYY-MM-DD. The datetime attribute
// wins; otherwise the "3 days ago" text is resolved against now. Unknown
// shapes yield "".
func postedDate(attr, text string, now time.Time) string {
	attr = strings.TrimSpace(attr)
	if isoDateRegex.MatchString(attr) {
		if d, err := time.Parse(time.DateOnly, attr[:10]); err == nil {
			return d.Format(time.DateOnly)
		}
	}

	m := relativeRegex.FindStringSubmatch(text)
	if m == nil {
		if strings.EqualFold(strings.TrimSpace(text), "just now") {
			return now.UTC().Format(time.DateOnly)
		}
		return ""
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ""
	}

	t := now.UTC()
	switch strings.ToLower(m[2]) {
	case "minute", "min":
		t = t.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		t = t.Add(-time.Duration(n) * time.Hour)
	case "day":
		t = t.AddDate(0, 0, -n)
	case "week":
		t = t.AddDate(0, 0, -7*n)
	case "month":
		t = t.AddDate(0, -n, 0)
	case "year":
		t = t.AddDate(-n, 0, 0)
	}
	return t.Format(time.DateOnly)
}
