package linkedin

import (
	"net/url"
	"strconv"
	"strings"

	"go-joblog-automation/internal/engine"
)

const (
	searchEndpoint = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search"
	detailEndpoint = "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/"
)

var timeParams = map[engine.TimeFilter]string{
	engine.TimeDay:   "r86400",
	engine.TimeWeek:  "r604800",
	engine.TimeMonth: "r2592000",
}

var typeParams = map[engine.TypeFilter]string{
	engine.TypeFullTime:   "F",
	engine.TypePartTime:   "P",
	engine.TypeContract:   "C",
	engine.TypeTemporary:  "T",
	engine.TypeInternship: "I",
	engine.TypeVolunteer:  "V",
	engine.TypeOther:      "O",
}

// SearchURL builds the public search endpoint for one page of results.
func SearchURL(q engine.Query, location string, start int) string {
	v := url.Values{}
	v.Set("keywords", q.Keywords)
	if location != "" {
		v.Set("location", location)
	}
	if p, ok := timeParams[q.Options.Time]; ok {
		v.Set("f_TPR", p)
	}
	if len(q.Options.Types) > 0 {
		codes := make([]string, 0, len(q.Options.Types))
		for _, t := range q.Options.Types {
			if c, ok := typeParams[t]; ok {
				codes = append(codes, c)
			}
		}
		if len(codes) > 0 {
			v.Set("f_JT", strings.Join(codes, ","))
		}
	}
	v.Set("start", strconv.Itoa(start))
	return searchEndpoint + "?" + v.Encode()
}

// DetailURL is the public posting endpoint carrying the description.
func DetailURL(jobID string) string {
	return detailEndpoint + url.PathEscape(jobID)
}

// stripQuery drops tracking parameters so the same posting keeps one link.
func stripQuery(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
