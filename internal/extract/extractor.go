// Package extract converts raw document sources (plain text, PDF bytes,
// webpage HTML) into plain text plus page and structure metadata. It is
// the extraction collaborator everything else treats as opaque: all
// offsets it reports are rune offsets into the text it returns.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
)

// Extractor converts one content type into an ExtractionResult.
type Extractor interface {
	Extract(ctx context.Context, doc *models.Document) (*models.ExtractionResult, error)
}

// Registry dispatches documents to the extractor for their content type.
type Registry struct {
	byType map[string]Extractor
	logger *slog.Logger
}

// NewRegistry creates a registry with the built-in extractors for text,
// pdf and webpage content.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		byType: map[string]Extractor{
			models.ContentTypeText:    &TextExtractor{},
			models.ContentTypePDF:     &PDFExtractor{},
			models.ContentTypeWebpage: NewWebpageExtractor(),
		},
		logger: logger,
	}
}

// Register installs or replaces the extractor for a content type.
func (r *Registry) Register(contentType string, e Extractor) {
	r.byType[contentType] = e
}

// For returns the extractor registered for a content type.
func (r *Registry) For(contentType string) (Extractor, error) {
	e, ok := r.byType[contentType]
	if !ok {
		return nil, &domain.ExtractionError{
			ContentType: contentType,
			Err:         fmt.Errorf("no extractor registered"),
		}
	}
	return e, nil
}

// normalizeBoundaries guarantees a well-formed page map: at least one
// page, first boundary at offset zero, strictly ascending, none past the
// end of the text.
func normalizeBoundaries(boundaries []int64, textLen int) []int64 {
	out := []int64{0}
	for _, b := range boundaries {
		if b <= out[len(out)-1] || b >= int64(textLen) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// paginate produces synthetic page boundaries every pageSize runes for
// sources without natural pages.
func paginate(textLen, pageSize int) []int64 {
	boundaries := []int64{0}
	for off := pageSize; off < textLen; off += pageSize {
		boundaries = append(boundaries, int64(off))
	}
	return boundaries
}
