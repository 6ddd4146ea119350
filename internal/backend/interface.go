package backend

import (
	"context"
	"time"

	"salesdash/internal/records"
	"salesdash/internal/records/cached"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// CheckFunc reports whether the dataset source is reachable.
type CheckFunc func(ctx context.Context) error

// DescribeFunc reports metadata about the dataset currently served.
type DescribeFunc func(ctx context.Context) (map[string]any, error)

// BackendResult contains the dataset source and the hooks that manage it.
type BackendResult struct {
	Source records.Source
	// Cache is the read-through layer around Source, nil when caching is off.
	Cache *cached.Source
	// Check backs the readiness probe; nil means always ready.
	Check CheckFunc
	// Describe is set by sources that track dataset snapshots.
	Describe DescribeFunc
	Cleanup  CleanupFunc
}

// Factory creates dataset sources based on configuration
type Factory interface {
	// CreateBackend creates a source instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for source creation
type Config struct {
	Type BackendType

	// CSV file for the csv backend, seed file for the memory backend
	DataFile     string
	CSVDelimiter rune

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleSheetColumns       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Read-through cache around any source
	CacheEnabled bool
	CacheTTL     time.Duration
}

// BackendType represents the type of dataset source
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
