// Package merge folds a run's records into the persisted dataset.
package merge

import (
	"slices"

	"go-joblog-automation/internal/models"
)

// Merge appends batch after existing. For keyed layouts the result is then
// stable-sorted newest first and reduced to the first row per job_id, so the
// most recently captured copy of a posting wins. Rows with an unparseable
// timestamp sort last; ties keep concatenation order. Rows without a job_id
// are never collapsed. Unkeyed layouts are a plain append.
func Merge(existing, batch models.Dataset, layout models.Layout) models.Dataset {
	combined := make(models.Dataset, 0, len(existing)+len(batch))
	combined = append(combined, existing...)
	combined = append(combined, batch...)
	if !layout.Keyed {
		return combined
	}

	slices.SortStableFunc(combined, newestFirst)
	return dedupByJobID(combined)
}

func newestFirst(a, b models.JobRecord) int {
	ta, okA := a.CapturedAt()
	tb, okB := b.CapturedAt()
	switch {
	case okA && okB:
		return tb.Compare(ta)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}

func dedupByJobID(ds models.Dataset) models.Dataset {
	seen := make(map[string]struct{}, len(ds))
	out := ds[:0]
	for _, r := range ds {
		if r.JobID != "" {
			if _, dup := seen[r.JobID]; dup {
				continue
			}
			seen[r.JobID] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
