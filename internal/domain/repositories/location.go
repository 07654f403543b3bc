package repositories

import (
	"context"

	"marginalia/internal/domain/models"
)

// LocationRepository defines data access operations for document
// locations, the committed span intervals of the span index.
type LocationRepository interface {
	// Create inserts a new location and fills its id and timestamps.
	Create(ctx context.Context, loc *models.DocumentLocation) error

	// Delete removes a location. Returns domain.ErrNotFound (wrapped)
	// when the id is unknown, to surface programming errors early.
	Delete(ctx context.Context, id string) error

	// ListOverlapping returns all locations of a document intersecting
	// [start, end), ordered by start position ascending.
	ListOverlapping(ctx context.Context, documentID string, start, end int) ([]models.DocumentLocation, error)

	// ListByDocument returns all locations of a document ordered by start
	// position ascending.
	ListByDocument(ctx context.Context, documentID string) ([]models.DocumentLocation, error)

	// ListBySelectedText returns all locations of a selected text across
	// every document.
	ListBySelectedText(ctx context.Context, selectedTextID string) ([]models.DocumentLocation, error)
}
