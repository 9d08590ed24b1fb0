package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-joblog-automation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "outputs", "jobs_log.csv"), 0, models.LayoutLatest)

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_SaveCreatesDirectoryAndHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outputs", "jobs_log.csv")
	s := NewFileStore(path, 0, models.LayoutLatest)
	desc := "visa sponsorship"

	err := s.Save(context.Background(), models.Dataset{
		{Timestamp: "2025-01-01T00:00:00.000000Z", JobID: "1", Title: "Data Engineer", Company: "Acme, Inc.", Link: "https://x/1", Description: &desc},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"timestamp,job_id,title,company,company_link,date,date_text,link\n"+
			"2025-01-01T00:00:00.000000Z,1,Data Engineer,\"Acme, Inc.\",,,,https://x/1\n",
		string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStore_TabDelimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_log.tsv")
	s := NewFileStore(path, 0, models.LayoutLegacy)
	desc := "line one, with comma"

	require.NoError(t, s.Save(context.Background(), models.Dataset{{Timestamp: "t1", Title: "A", Description: &desc}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp\ttitle\tcompany")

	ds, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 1)
	require.NotNil(t, ds[0].Description)
	assert.Equal(t, desc, *ds[0].Description)
}

func TestFileStore_LoadByHeaderName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_log.csv")
	// reordered columns, an extra one and a BOM
	writeFile(t, path, "\xEF\xBB\xBFlink,job_id,salary,timestamp,title,company,company_link,date,date_text\n"+
		"https://x/7,7,100k,2025-01-01T00:00:00Z,Engineer,Acme,,2025-01-01,1 day ago\n")
	s := NewFileStore(path, ',', models.LayoutLatest)

	ds, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "7", ds[0].JobID)
	assert.Equal(t, "https://x/7", ds[0].Link)
	assert.Equal(t, "1 day ago", ds[0].DateText)
	assert.Nil(t, ds[0].Description)
}

func TestFileStore_LoadHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_log.csv")
	writeFile(t, path, "timestamp,job_id,title,company,company_link,date,date_text,link\n")

	ds, err := NewFileStore(path, ',', models.LayoutLatest).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestFileStore_LoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		layout  models.Layout
		wantErr error
	}{
		{
			name:    "empty file",
			content: "",
			layout:  models.LayoutLatest,
			wantErr: ErrCorruptDataset,
		},
		{
			name:    "ragged rows",
			content: "timestamp,job_id,title,company,company_link,date,date_text,link\nonly,three,cells\n",
			layout:  models.LayoutLatest,
			wantErr: ErrCorruptDataset,
		},
		{
			name:    "broken quoting",
			content: "timestamp,job_id,title,company,company_link,date,date_text,link\n\"open,1,a,b,c,d,e,f\n",
			layout:  models.LayoutLatest,
			wantErr: ErrCorruptDataset,
		},
		{
			name:    "legacy file under latest layout",
			content: "timestamp,title,company,company_link,date_text,link,description\nt,a,b,c,d,e,f\n",
			layout:  models.LayoutLatest,
			wantErr: ErrSchemaMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "jobs_log.csv")
			writeFile(t, path, tt.content)

			_, err := NewFileStore(path, ',', tt.layout).Load(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFileStore_Lock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_log.csv")
	first := NewFileStore(path, ',', models.LayoutLatest)
	second := NewFileStore(path, ',', models.LayoutLatest)
	second.lockRetry = 10 * time.Millisecond

	unlock, err := first.Lock(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, unlock())

	unlock, err = second.Lock(context.Background())
	require.NoError(t, err)
	assert.NoError(t, unlock())
}

func TestDelimiterForPath(t *testing.T) {
	assert.Equal(t, '\t', DelimiterForPath("out/jobs.TSV"))
	assert.Equal(t, ',', DelimiterForPath("out/jobs_log.csv"))
	assert.Equal(t, ',', DelimiterForPath("out/jobs"))
}
