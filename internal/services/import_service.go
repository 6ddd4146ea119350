package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"salesdash/internal/amqp"
	applog "salesdash/internal/log"
	"salesdash/internal/records"
)

// UpdatePublisher announces a freshly imported dataset snapshot.
type UpdatePublisher interface {
	PublishDatasetUpdated(ctx context.Context, msg *amqp.DatasetUpdatedMessage) error
}

// ImportResult describes a completed import.
type ImportResult struct {
	ImportID  int64
	Rows      int
	Published bool
}

// ImportService copies a dataset from a source into the store and notifies
// API instances through AMQP.
type ImportService struct {
	store     records.Writer
	publisher UpdatePublisher
	logger    *applog.Logger
}

// NewImportService creates an import service. publisher may be nil when AMQP
// is not configured.
func NewImportService(store records.Writer, publisher UpdatePublisher, logger *applog.Logger) *ImportService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ImportService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentImport),
	}
}

// Import loads every record from src and replaces the stored snapshot with
// them. The snapshot is saved before the update is published; a failed
// publish leaves the import in place.
func (s *ImportService) Import(ctx context.Context, name string, src records.Source) (ImportResult, error) {
	recs, err := src.Load(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("load %s: %w", name, err)
	}

	id, err := s.store.ReplaceAll(ctx, name, recs)
	if err != nil {
		return ImportResult{}, fmt.Errorf("store snapshot: %w", err)
	}
	result := ImportResult{ImportID: id, Rows: len(recs)}

	s.logger.InfoContext(ctx, "Dataset imported",
		applog.FieldSource, name,
		applog.FieldImportID, id,
		applog.FieldRecords, len(recs))

	if err := s.publish(ctx, amqp.NewDatasetUpdatedMessage(name, id, len(recs))); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish dataset update",
			applog.FieldImportID, id,
			applog.FieldOperation, applog.OpPublish,
			applog.FieldError, err)
		return result, nil
	}
	result.Published = s.publisher != nil
	return result, nil
}

func (s *ImportService) publish(ctx context.Context, msg *amqp.DatasetUpdatedMessage) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP client not available, skipping dataset update")
		return nil
	}
	return s.publisher.PublishDatasetUpdated(ctx, msg)
}

// Close closes both the store and the publisher when they hold connections.
func (s *ImportService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close import service: %w", errors.Join(errs...))
	}

	return nil
}
