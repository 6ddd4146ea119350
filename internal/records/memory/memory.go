package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"salesdash/internal/core"
	"salesdash/internal/records"
	"salesdash/internal/records/csvfile"
)

// Ensure interface conformance
var (
	_ records.Source    = (*Store)(nil)
	_ records.Versioner = (*Store)(nil)
	_ records.Writer    = (*Store)(nil)
)

// Store keeps a dataset snapshot in process memory.
type Store struct {
	mu      sync.Mutex
	items   []core.Record
	version int64
}

func New(recs []core.Record) *Store {
	return &Store{items: append([]core.Record(nil), recs...)}
}

// NewFromFile seeds the store from the CSV dataset at path. An empty path
// yields an empty store; a missing or malformed file is an error.
func NewFromFile(ctx context.Context, path string, comma rune) (*Store, error) {
	if path == "" {
		return New(nil), nil
	}
	src := csvfile.New(path)
	if comma != 0 {
		src = src.WithComma(comma)
	}
	recs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed memory store: %w", err)
	}
	return New(recs), nil
}

// Load returns a copy of the stored records.
func (s *Store) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items...), nil
}

// Version returns a counter bumped by every ReplaceAll.
func (s *Store) Version(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "mem:" + strconv.FormatInt(s.version, 10), nil
}

// ReplaceAll swaps the stored snapshot.
func (s *Store) ReplaceAll(_ context.Context, _ string, recs []core.Record) (int64, error) {
	for i, r := range recs {
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Record(nil), recs...)
	s.version++
	return s.version, nil
}
