package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"salesdash/internal/records/cached"
	"salesdash/internal/records/csvfile"
	gsheet "salesdash/internal/records/google"
	"salesdash/internal/records/memory"
	"salesdash/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case CSVBackend:
		result = f.createCSVBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if config.CacheEnabled {
		result.Cache = cached.New(result.Source, config.CacheTTL)
		result.Source = result.Cache
		f.logger.Info("Enabled dataset cache", "ttl", config.CacheTTL)
	}
	return result, nil
}

func (f *DefaultFactory) createCSVBackend(config Config) *BackendResult {
	src := csvfile.New(config.DataFile)
	if config.CSVDelimiter != 0 {
		src = src.WithComma(config.CSVDelimiter)
	}

	f.logger.Info("Initialized CSV backend", "path", src.Path())

	return &BackendResult{
		Source: src,
		Check: func(context.Context) error {
			_, err := os.Stat(src.Path())
			return err
		},
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:   repo,
		Check:    repo.Ping,
		Describe: describeLatestImport(repo),
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	src, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		Columns:         config.GoogleSheetColumns,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "range", src.Range())

	return &BackendResult{Source: src}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(ctx, config.DataFile, config.CSVDelimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "seed_file", config.DataFile)

	return &BackendResult{Source: store}, nil
}

// describeLatestImport reports the snapshot the SQLite source serves.
// An empty database is described as such rather than failing.
func describeLatestImport(repo *storage.SQLiteRepository) DescribeFunc {
	return func(ctx context.Context) (map[string]any, error) {
		imp, err := repo.LatestImport(ctx)
		if errors.Is(err, storage.ErrNoImport) {
			return map[string]any{"import_id": int64(0)}, nil
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"import_id":   imp.ID,
			"source":      imp.Source,
			"rows":        imp.RowCount,
			"imported_at": imp.ImportedAt.Format(time.RFC3339),
		}, nil
	}
}
