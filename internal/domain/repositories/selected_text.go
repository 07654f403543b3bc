package repositories

import (
	"context"

	"marginalia/internal/domain/models"
)

// SelectedTextRepository defines data access operations for canonical
// selected texts. Uniqueness of the text column is enforced by the
// storage layer; Create surfaces violations as domain.ConflictError so
// callers can retry with a lookup.
type SelectedTextRepository interface {
	// Create inserts a new selected text and fills its id and timestamps.
	// Returns domain.ConflictError when the exact text already exists.
	Create(ctx context.Context, st *models.SelectedText) error

	// GetByID retrieves a selected text by id.
	GetByID(ctx context.Context, id string) (*models.SelectedText, error)

	// GetByText retrieves a selected text by exact string match.
	GetByText(ctx context.Context, text string) (*models.SelectedText, error)

	// Update persists the text type and legacy position fields.
	Update(ctx context.Context, st *models.SelectedText) error

	// Delete removes a selected text; its annotations and locations
	// cascade with it.
	Delete(ctx context.Context, id string) error
}
