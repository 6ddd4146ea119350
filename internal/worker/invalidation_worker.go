package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"salesdash/internal/amqp"
)

// Invalidator drops cached dataset snapshots.
type Invalidator interface {
	Invalidate() int
}

// UpdateConsumer delivers dataset update messages until ctx is done.
type UpdateConsumer interface {
	ConsumeDatasetUpdates(ctx context.Context, handler func(context.Context, *amqp.DatasetUpdatedMessage) error) error
}

// InvalidationWorker evicts the API's cached snapshot when a new import is announced.
type InvalidationWorker struct {
	cache Invalidator

	mu           sync.Mutex
	lastImportID int64
	lastApplied  time.Time
}

func NewInvalidationWorker(cache Invalidator) *InvalidationWorker {
	return &InvalidationWorker{cache: cache}
}

// HandleDatasetUpdated processes a single dataset update message from AMQP.
// Redelivered or out-of-order messages for older imports are acknowledged
// without touching the cache.
func (w *InvalidationWorker) HandleDatasetUpdated(ctx context.Context, msg *amqp.DatasetUpdatedMessage) error {
	w.mu.Lock()
	if msg.ImportID <= w.lastImportID {
		last := w.lastImportID
		w.mu.Unlock()
		slog.DebugContext(ctx, "Ignoring stale dataset update",
			"import_id", msg.ImportID,
			"last_import_id", last)
		return nil
	}
	w.lastImportID = msg.ImportID
	w.lastApplied = time.Now()
	w.mu.Unlock()

	removed := w.cache.Invalidate()

	slog.InfoContext(ctx, "Dataset cache invalidated",
		"import_id", msg.ImportID,
		"source", msg.Source,
		"records", msg.Rows,
		"evicted", removed,
		"published_at", msg.Timestamp)

	return nil
}

// Run consumes updates until ctx is cancelled.
func (w *InvalidationWorker) Run(ctx context.Context, consumer UpdateConsumer) error {
	slog.InfoContext(ctx, "Starting cache invalidation worker")
	err := consumer.ConsumeDatasetUpdates(ctx, w.HandleDatasetUpdated)
	if ctx.Err() != nil {
		slog.InfoContext(ctx, "Cache invalidation worker stopped")
		return nil
	}
	return err
}

// LastImport reports the newest import applied and when.
func (w *InvalidationWorker) LastImport() (int64, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastImportID, w.lastApplied
}
