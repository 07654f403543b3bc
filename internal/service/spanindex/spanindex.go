// Package spanindex maintains, per document, the set of character-offset
// intervals claimed by selected-text locations, and guarantees they never
// overlap.
package spanindex

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
)

// Index serializes span reservations per document. The per-document mutex
// spans the whole overlap-check-and-insert sequence; without it two
// concurrent reservations could both pass the check and violate the
// non-overlap invariant.
type Index struct {
	locations repositories.LocationRepository
	logger    *slog.Logger

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// New creates a span index backed by the given location repository.
func New(locations repositories.LocationRepository, logger *slog.Logger) *Index {
	return &Index{
		locations: locations,
		logger:    logger,
		docLocks:  make(map[string]*sync.Mutex),
	}
}

func (s *Index) lockFor(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.docLocks[documentID]
	if !ok {
		l = &sync.Mutex{}
		s.docLocks[documentID] = l
	}
	return l
}

// Reserve claims the half-open interval [start, end) for a document.
// If the interval intersects any committed location of that document it
// fails with an OverlapError and bind is never called. Otherwise bind is
// invoked to produce the selected-text id the new location belongs to,
// and the location row is persisted and returned.
//
// bind runs while the document lock is held, so resolving the canonical
// selected text happens only for reservations that are known not to
// overlap.
func (s *Index) Reserve(ctx context.Context, documentID string, start, end int, pageNumber *int, bind func(ctx context.Context) (string, error)) (*models.DocumentLocation, error) {
	if start < 0 || end <= start {
		return nil, &domain.ValidationError{
			Message: "invalid span",
			Fields:  map[string]string{"start_position": fmt.Sprintf("must satisfy 0 <= %d < %d", start, end)},
		}
	}

	lock := s.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	overlapping, err := s.locations.ListOverlapping(ctx, documentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, &domain.OverlapError{
			DocumentID: documentID,
			Start:      start,
			End:        end,
			LocationID: overlapping[0].ID,
		}
	}

	selectedTextID, err := bind(ctx)
	if err != nil {
		return nil, err
	}

	loc := &models.DocumentLocation{
		DocumentID:     documentID,
		SelectedTextID: selectedTextID,
		StartPosition:  start,
		EndPosition:    end,
		PageNumber:     pageNumber,
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, fmt.Errorf("reserve span: %w", err)
	}

	s.logger.Debug("span reserved",
		"document_id", documentID,
		"location_id", loc.ID,
		"start", start,
		"end", end,
	)

	return loc, nil
}

// Release removes a reserved interval. An unknown location id fails with
// NotFound rather than succeeding silently, to surface programming errors
// early.
func (s *Index) Release(ctx context.Context, locationID string) error {
	if err := s.locations.Delete(ctx, locationID); err != nil {
		return err
	}
	s.logger.Debug("span released", "location_id", locationID)
	return nil
}

// Query returns all committed locations of a document overlapping
// [start, end), ordered by start offset ascending. Used to find what is
// already annotated when rendering a page.
func (s *Index) Query(ctx context.Context, documentID string, start, end int) ([]models.DocumentLocation, error) {
	return s.locations.ListOverlapping(ctx, documentID, start, end)
}
