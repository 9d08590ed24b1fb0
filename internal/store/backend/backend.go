// Package backend opens the dataset store selected in the config.
package backend

import (
	"context"
	"fmt"

	"go-joblog-automation/internal/config"
	"go-joblog-automation/internal/database"
	"go-joblog-automation/internal/models"
	"go-joblog-automation/internal/store"
	"go-joblog-automation/internal/store/sqlite"
)

// Opened is a ready store plus what it needs to shut down.
type Opened struct {
	Store  store.Store
	Layout models.Layout
	// Target names the dataset for humans: a file path or a backend url.
	Target string
	Close  func() error
}

func Open(ctx context.Context, out config.OutputConfig) (*Opened, error) {
	layout, err := out.ResolveLayout()
	if err != nil {
		return nil, err
	}

	switch out.Backend {
	case config.BackendCSV, "":
		delim, err := out.DelimiterRune()
		if err != nil {
			return nil, err
		}
		fs := store.NewFileStore(out.Path, delim, layout)
		return &Opened{Store: fs, Layout: layout, Target: fs.Path(), Close: func() error { return nil }}, nil

	case config.BackendSQLite:
		s, err := sqlite.Open(ctx, out.Path, layout)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return &Opened{Store: s, Layout: layout, Target: s.Describe(), Close: s.Close}, nil

	case config.BackendPostgres:
		repo, err := database.ConnectDB(ctx, out.DatabaseURL, layout)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return &Opened{Store: repo, Layout: layout, Target: repo.Describe(), Close: func() error { repo.Close(); return nil }}, nil
	}
	return nil, fmt.Errorf("%w: unknown output backend %q", config.ErrInvalid, out.Backend)
}
