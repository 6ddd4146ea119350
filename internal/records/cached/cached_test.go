package cached

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"salesdash/internal/core"
)

type countingSource struct {
	calls   atomic.Int64
	version string
	err     error
	delay   time.Duration
}

func (c *countingSource) Load(context.Context) ([]core.Record, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return nil, c.err
	}
	return []core.Record{{Date: "2022-01-01", Department: "A", Seats: 1}}, nil
}

type versionedSource struct {
	countingSource
	mu      sync.Mutex
	current string
}

func (v *versionedSource) Version(context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, nil
}

func (v *versionedSource) set(version string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.current = version
}

func TestCachedSourceServesUntilVersionChanges(t *testing.T) {
	inner := &versionedSource{current: "v1"}
	src := New(inner, 0)

	for i := 0; i < 3; i++ {
		if _, err := src.Load(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("expected 1 inner load, got %d", got)
	}

	inner.set("v2")
	if _, err := src.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("expected reload after version change, got %d loads", got)
	}
}

func TestCachedSourceInvalidate(t *testing.T) {
	inner := &countingSource{}
	src := New(inner, time.Hour)

	_, _ = src.Load(context.Background())
	_, _ = src.Load(context.Background())
	if inner.calls.Load() != 1 {
		t.Fatalf("expected cached second load, got %d", inner.calls.Load())
	}

	v1, _ := src.Version(context.Background())
	if removed := src.Invalidate(); removed != 1 {
		t.Fatalf("Invalidate() removed %d", removed)
	}
	v2, _ := src.Version(context.Background())
	if v1 == v2 {
		t.Fatal("generation must change on Invalidate")
	}
	_, _ = src.Load(context.Background())
	if inner.calls.Load() != 2 {
		t.Fatalf("expected reload after Invalidate, got %d", inner.calls.Load())
	}

	stats, loads := src.Stats()
	if loads != 2 || stats.Hits != 1 {
		t.Fatalf("unexpected stats: %+v loads=%d", stats, loads)
	}
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	inner := &countingSource{err: errors.New("boom")}
	src := New(inner, time.Hour)

	for i := 0; i < 2; i++ {
		if _, err := src.Load(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls.Load() != 2 {
		t.Fatalf("errors must not be cached, got %d loads", inner.calls.Load())
	}
}

func TestCachedSourceCollapsesConcurrentMisses(t *testing.T) {
	inner := &countingSource{delay: 50 * time.Millisecond}
	src := New(inner, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := src.Load(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("expected a single inner load, got %d", got)
	}
}
