// Package store persists the accumulated dataset between runs.
package store

import (
	"context"
	"errors"

	"go-joblog-automation/internal/models"
)

var (
	// ErrNotFound is returned by Load when nothing has been persisted yet.
	ErrNotFound = errors.New("dataset not found")

	// ErrCorruptDataset is returned by Load when the persisted data cannot be decoded.
	ErrCorruptDataset = errors.New("dataset is corrupt or unreadable")

	// ErrSchemaMismatch is returned by Load when a column required by the layout is missing.
	ErrSchemaMismatch = errors.New("dataset is missing required columns")

	// ErrLocked is returned by Lock when another run holds the dataset.
	ErrLocked = errors.New("dataset is locked by another run")
)

// Store loads and saves a whole dataset. Save fully replaces what was stored.
type Store interface {
	Load(ctx context.Context) (models.Dataset, error)
	Save(ctx context.Context, ds models.Dataset) error
}

// Locker is implemented by stores that need an explicit guard against
// concurrent runs. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// Describer is implemented by stores that can name their location for humans.
type Describer interface {
	Describe() string
}

// Describe names s for log lines and the summary.
func Describe(s Store) string {
	if d, ok := s.(Describer); ok {
		return d.Describe()
	}
	return "dataset"
}
