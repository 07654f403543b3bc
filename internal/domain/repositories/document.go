package repositories

import (
	"context"

	"marginalia/internal/domain/models"
)

// DocumentRepository defines data access operations for documents.
type DocumentRepository interface {
	// Create inserts a new document and fills its id and timestamps.
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by id.
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// List retrieves all documents, newest first, without extracted text.
	List(ctx context.Context) ([]models.Document, error)

	// Update persists title, current page and raw source fields.
	Update(ctx context.Context, doc *models.Document) error

	// MarkExtracted commits an extraction result onto the document row:
	// extracted text, page boundaries, total pages and the clamped
	// current page, and flips the extracted flag.
	MarkExtracted(ctx context.Context, doc *models.Document) error

	// Delete removes a document. Outline rows and document locations go
	// with it; selected texts survive.
	Delete(ctx context.Context, id string) error
}
