package sheets

import (
	"context"

	"bookkeeper/internal/core"
)

// Ports for inbound import adapters.
type (
	// RowSetReader returns every table of an import source, header row first.
	RowSetReader interface {
		ReadRowSets(ctx context.Context) ([]core.RowSet, error)
	}
)
