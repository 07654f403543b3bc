package repositories

import (
	"context"

	"marginalia/internal/domain/models"
)

// OutlineRepository defines data access operations for document outlines.
// Outline rows are created in bulk during ingest and read-heavy afterwards.
type OutlineRepository interface {
	// CreateBatch inserts outline rows in order, filling ids. Rows must
	// reference parents appearing earlier in the slice (or have none).
	CreateBatch(ctx context.Context, rows []*models.DocumentOutline) error

	// ListByDocument retrieves all outline rows for a document ordered by
	// position within each parent group.
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentOutline, error)

	// DeleteByDocument removes every outline row of a document. Used when
	// a failed ingest is retried.
	DeleteByDocument(ctx context.Context, documentID string) error
}
