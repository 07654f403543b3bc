package repositories

import (
	"context"

	"marginalia/internal/domain/models"
)

// AnnotationRepository defines data access operations shared by the four
// annotation kinds. The concrete table is selected by the record's kind.
type AnnotationRepository interface {
	// Create inserts an annotation and fills its id and timestamps. The
	// record's SelectedTextID must reference an existing selected text.
	Create(ctx context.Context, a models.Annotation) error

	// Get retrieves one annotation by kind and id.
	Get(ctx context.Context, kind models.AnnotationKind, id string) (models.Annotation, error)

	// Update persists the kind-specific payload fields of an annotation.
	// Returns domain.ErrNotFound (wrapped) when the id/kind pair is
	// unknown.
	Update(ctx context.Context, a models.Annotation) error

	// Delete removes one annotation. Returns domain.ErrNotFound (wrapped)
	// when the id/kind pair is unknown.
	Delete(ctx context.Context, kind models.AnnotationKind, id string) error

	// ListBySelectedText retrieves every annotation of a selected text,
	// grouped by kind.
	ListBySelectedText(ctx context.Context, selectedTextID string) (*models.AnnotationSet, error)
}
