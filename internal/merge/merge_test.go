package merge

import (
	"testing"

	"go-joblog-automation/internal/models"

	"github.com/stretchr/testify/assert"
)

func rec(id, ts string) models.JobRecord {
	return models.JobRecord{Timestamp: ts, JobID: id, Title: "job " + id}
}

func ids(ds models.Dataset) []string {
	out := make([]string, 0, len(ds))
	for _, r := range ds {
		out = append(out, r.JobID+"@"+r.Timestamp)
	}
	return out
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing models.Dataset
		batch    models.Dataset
		layout   models.Layout
		expected []string
	}{
		{
			name:     "later timestamp wins over stored row",
			existing: models.Dataset{rec("1", "2025-01-01T00:00:00Z")},
			batch:    models.Dataset{rec("1", "2025-01-02T00:00:00Z")},
			layout:   models.LayoutLatest,
			expected: []string{"1@2025-01-02T00:00:00Z"},
		},
		{
			name:     "stored row wins when it is newer",
			existing: models.Dataset{rec("1", "2025-01-03T00:00:00Z")},
			batch:    models.Dataset{rec("1", "2025-01-02T00:00:00Z")},
			layout:   models.LayoutLatest,
			expected: []string{"1@2025-01-03T00:00:00Z"},
		},
		{
			name:   "duplicates inside one batch",
			batch:  models.Dataset{rec("1", "2025-01-01T00:00:00Z"), rec("1", "2025-01-01T00:05:00Z"), rec("2", "2025-01-01T00:01:00Z")},
			layout: models.LayoutLatest,
			expected: []string{
				"1@2025-01-01T00:05:00Z",
				"2@2025-01-01T00:01:00Z",
			},
		},
		{
			name:     "sorted newest first, naive and zoned timestamps compare",
			existing: models.Dataset{rec("a", "2025-01-01T10:00:00"), rec("b", "2025-01-01T12:00:00+01:00")},
			batch:    models.Dataset{rec("c", "2025-01-01T10:30:00.000000Z")},
			layout:   models.LayoutLatest,
			expected: []string{
				"b@2025-01-01T12:00:00+01:00",
				"c@2025-01-01T10:30:00.000000Z",
				"a@2025-01-01T10:00:00",
			},
		},
		{
			name:     "tie keeps stored row",
			existing: models.Dataset{{Timestamp: "2025-01-01T00:00:00Z", JobID: "1", Title: "old"}},
			batch:    models.Dataset{{Timestamp: "2025-01-01T00:00:00Z", JobID: "1", Title: "new"}},
			layout:   models.LayoutLatest,
			expected: []string{"1@2025-01-01T00:00:00Z"},
		},
		{
			name:     "unparseable timestamps sort last",
			existing: models.Dataset{rec("x", "not a time")},
			batch:    models.Dataset{rec("y", "2025-01-01T00:00:00Z")},
			layout:   models.LayoutLatest,
			expected: []string{"y@2025-01-01T00:00:00Z", "x@not a time"},
		},
		{
			name:     "rows without job_id are kept",
			existing: models.Dataset{rec("", "2025-01-01T00:00:00Z")},
			batch:    models.Dataset{rec("", "2025-01-02T00:00:00Z")},
			layout:   models.LayoutLatest,
			expected: []string{"@2025-01-02T00:00:00Z", "@2025-01-01T00:00:00Z"},
		},
		{
			name:     "legacy layout is a plain append",
			existing: models.Dataset{rec("1", "2025-01-01T00:00:00Z")},
			batch:    models.Dataset{rec("1", "2025-01-02T00:00:00Z"), rec("1", "2025-01-02T00:00:00Z")},
			layout:   models.LayoutLegacy,
			expected: []string{
				"1@2025-01-01T00:00:00Z",
				"1@2025-01-02T00:00:00Z",
				"1@2025-01-02T00:00:00Z",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.existing, tt.batch, tt.layout)
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestMerge_TieKeepsStoredCopy(t *testing.T) {
	got := Merge(
		models.Dataset{{Timestamp: "2025-01-01T00:00:00Z", JobID: "1", Title: "old"}},
		models.Dataset{{Timestamp: "2025-01-01T00:00:00Z", JobID: "1", Title: "new"}},
		models.LayoutLatest,
	)
	assert.Equal(t, "old", got[0].Title)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	existing := models.Dataset{rec("1", "2025-01-01T00:00:00Z"), rec("2", "2025-01-03T00:00:00Z")}
	batch := models.Dataset{rec("1", "2025-01-02T00:00:00Z")}

	_ = Merge(existing, batch, models.LayoutLatest)

	assert.Equal(t, []string{"1@2025-01-01T00:00:00Z", "2@2025-01-03T00:00:00Z"}, ids(existing))
	assert.Equal(t, []string{"1@2025-01-02T00:00:00Z"}, ids(batch))
}
