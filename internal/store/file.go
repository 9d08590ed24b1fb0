package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-joblog-automation/internal/models"

	"github.com/gofrs/flock"
)

const utf8BOM = "\xEF\xBB\xBF"

// FileStore keeps the dataset in a delimited text file (CSV or TSV) with a header row.
type FileStore struct {
	path      string
	delimiter rune
	layout    models.Layout

	lockRetry time.Duration
}

func NewFileStore(path string, delimiter rune, layout models.Layout) *FileStore {
	if delimiter == 0 {
		delimiter = DelimiterForPath(path)
	}
	return &FileStore{
		path:      path,
		delimiter: delimiter,
		layout:    layout,
		lockRetry: 250 * time.Millisecond,
	}
}

// DelimiterForPath picks tab for .tsv/.tab files and comma otherwise.
func DelimiterForPath(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return '\t'
	}
	return ','
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Describe() string { return s.path }

// Load reads the whole file. Columns are matched by header name; unknown ones are ignored.
func (s *FileStore) Load(ctx context.Context) (models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrCorruptDataset, s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorruptDataset, s.path)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = s.delimiter

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header of %s: %v", ErrCorruptDataset, s.path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, col := range s.layout.Columns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s lacks %s for layout %q", ErrSchemaMismatch, s.path, strings.Join(missing, ", "), s.layout.Name)
	}

	var ds models.Dataset
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptDataset, s.path, err)
		}
		var rec models.JobRecord
		for col, i := range index {
			rec.SetField(col, row[i])
		}
		ds = append(ds, rec)
	}
	return ds, nil
}

// Save writes ds with the layout's columns to a temp file next to the target
// and renames it into place, so a failed write never truncates the old file.
func (s *FileStore) Save(ctx context.Context, ds models.Dataset) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	w.Comma = s.delimiter
	if err := w.Write(s.layout.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range ds {
		if err := w.Write(s.layout.Row(rec)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Lock takes an advisory lock on "<path>.lock", retrying until ctx is done.
func (s *FileStore) Lock(ctx context.Context) (func() error, error) {
	return LockFile(ctx, s.path, s.lockRetry)
}

// LockFile guards path against concurrent runs with a flock on "<path>.lock".
// A lock still held when ctx is done yields ErrLocked.
func LockFile(ctx context.Context, path string, retry time.Duration) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLockContext(ctx, retry)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLocked, path, ctx.Err())
		}
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return fl.Unlock, nil
}
