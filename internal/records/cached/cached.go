// Package cached provides a read-through cache in front of any record source.
//
// Entries are keyed by the wrapped source's version token, so a changed file
// or a new import is picked up on the next Load. Sources without a version
// token rely on the TTL alone. Concurrent misses for the same key share a
// single load.
package cached

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"salesdash/internal/cache"
	"salesdash/internal/core"
	"salesdash/internal/records"
)

// Ensure interface conformance
var (
	_ records.Source    = (*Source)(nil)
	_ records.Versioner = (*Source)(nil)
)

type Source struct {
	inner      records.Source
	versioner  records.Versioner
	entries    *cache.LRUCache[[]core.Record]
	group      singleflight.Group
	generation atomic.Int64
	loads      atomic.Int64
}

// New wraps inner. ttl bounds how long a snapshot is served; zero keeps it
// until the version changes or Invalidate is called.
func New(inner records.Source, ttl time.Duration) *Source {
	s := &Source{
		inner:   inner,
		entries: cache.NewLRUCache[[]core.Record](2, ttl),
	}
	if v, ok := inner.(records.Versioner); ok {
		s.versioner = v
	}
	return s
}

// Load returns the cached snapshot for the current version, loading it on a miss.
// The returned slice is shared between callers and must not be modified.
func (s *Source) Load(ctx context.Context) ([]core.Record, error) {
	key, err := s.key(ctx)
	if err != nil {
		return nil, err
	}
	if recs, ok := s.entries.Get(key); ok {
		return recs, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		recs, err := s.inner.Load(ctx)
		if err != nil {
			return nil, err
		}
		s.loads.Add(1)
		s.entries.Set(key, recs)
		return recs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]core.Record), nil
}

// Version reports the wrapped source's version, or the cache generation when
// the source has none.
func (s *Source) Version(ctx context.Context) (string, error) {
	return s.key(ctx)
}

// Invalidate drops every cached snapshot.
func (s *Source) Invalidate() int {
	s.generation.Add(1)
	return s.entries.Purge()
}

// Cleaner exposes the underlying cache for periodic expiry sweeps.
func (s *Source) Cleaner() cache.Cleaner {
	return s.entries
}

// Stats returns cache counters plus the number of loads performed.
func (s *Source) Stats() (cache.Stats, int64) {
	return s.entries.Stats(), s.loads.Load()
}

func (s *Source) key(ctx context.Context) (string, error) {
	gen := strconv.FormatInt(s.generation.Load(), 10)
	if s.versioner == nil {
		return "gen:" + gen, nil
	}
	v, err := s.versioner.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("dataset version: %w", err)
	}
	return gen + ":" + v, nil
}
