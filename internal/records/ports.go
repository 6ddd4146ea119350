package records

import (
	"context"

	"salesdash/internal/core"
)

// Ports for dataset adapters.
type (
	// Source loads the complete sales dataset.
	Source interface {
		// Load returns every record of the dataset, validated, in source order.
		Load(ctx context.Context) ([]core.Record, error)
	}

	// Versioner reports an opaque token that changes whenever the dataset changes.
	Versioner interface {
		Version(ctx context.Context) (string, error)
	}

	// Writer replaces the stored dataset with a new snapshot.
	Writer interface {
		ReplaceAll(ctx context.Context, source string, recs []core.Record) (importID int64, err error)
	}
)
