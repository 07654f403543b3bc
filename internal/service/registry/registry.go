// Package registry is the canonical store of selected-text entities.
// One entity exists per distinct text string across the whole system,
// regardless of which documents the phrase occurs in.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
)

// Registry resolves text strings to canonical SelectedText entities and
// aggregates everything attached to them.
type Registry struct {
	texts       repositories.SelectedTextRepository
	annotations repositories.AnnotationRepository
	locations   repositories.LocationRepository
	logger      *slog.Logger

	// group collapses concurrent resolves of the same text string into a
	// single lookup-or-create; the unique index on the text column backs
	// this up across processes.
	group singleflight.Group
}

// New creates a selected-text registry.
func New(
	texts repositories.SelectedTextRepository,
	annotations repositories.AnnotationRepository,
	locations repositories.LocationRepository,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		texts:       texts,
		annotations: annotations,
		locations:   locations,
		logger:      logger,
	}
}

// Resolve returns the canonical entity for the exact text string, creating
// it with the given text type when absent. The match is exact: no case
// folding, no trimming. Concurrent resolves for the same new text yield
// exactly one created entity and every caller observes the same id.
func (r *Registry) Resolve(ctx context.Context, text, textType string) (*models.SelectedText, error) {
	if text == "" {
		return nil, &domain.ValidationError{
			Message: "selected text must not be empty",
			Fields:  map[string]string{"text": "cannot be blank"},
		}
	}
	if textType == "" {
		textType = models.DefaultTextType
	}

	v, err, _ := r.group.Do(text, func() (interface{}, error) {
		return r.lookupOrCreate(ctx, text, textType)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SelectedText), nil
}

func (r *Registry) lookupOrCreate(ctx context.Context, text, textType string) (*models.SelectedText, error) {
	st, err := r.texts.GetByText(ctx, text)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	st = &models.SelectedText{Text: text, TextType: textType}
	err = r.texts.Create(ctx, st)
	if err == nil {
		r.logger.Info("selected text created", "id", st.ID, "text_type", textType)
		return st, nil
	}

	// Lost a race against another process: the unique constraint fired,
	// so the winner's row is authoritative.
	if errors.Is(err, domain.ErrConflict) {
		return r.texts.GetByText(ctx, text)
	}
	return nil, err
}

// Get retrieves a selected text by id.
func (r *Registry) Get(ctx context.Context, id string) (*models.SelectedText, error) {
	return r.texts.GetByID(ctx, id)
}

// UpdateTextType changes the free-form classifier of an entity.
func (r *Registry) UpdateTextType(ctx context.Context, id, textType string) (*models.SelectedText, error) {
	st, err := r.texts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if textType == "" {
		return nil, &domain.ValidationError{
			Message: "invalid selected text update",
			Fields:  map[string]string{"text_type": "cannot be blank"},
		}
	}
	st.TextType = textType
	if err := r.texts.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Delete removes a selected text together with its annotations and
// locations.
func (r *Registry) Delete(ctx context.Context, id string) error {
	return r.texts.Delete(ctx, id)
}

// AllSynonymsOf returns the union of the entity's own text and all of its
// registered synonym strings, duplicates collapsed, in first-seen order
// starting with the canonical text.
func (r *Registry) AllSynonymsOf(ctx context.Context, id string) ([]string, error) {
	st, err := r.texts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set, err := r.annotations.ListBySelectedText(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list synonyms: %w", err)
	}

	seen := map[string]bool{st.Text: true}
	result := []string{st.Text}
	for _, syn := range set.Synonyms {
		if seen[syn.SynonymText] {
			continue
		}
		seen[syn.SynonymText] = true
		result = append(result, syn.SynonymText)
	}
	return result, nil
}

// Aggregate composes all definitions, links, notes, synonyms and document
// locations attached to an entity: the full cross-document picture of one
// phrase.
func (r *Registry) Aggregate(ctx context.Context, id string) (*models.SelectedTextAggregate, error) {
	st, err := r.texts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	set, err := r.annotations.ListBySelectedText(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("aggregate annotations: %w", err)
	}
	locs, err := r.locations.ListBySelectedText(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("aggregate locations: %w", err)
	}
	if locs == nil {
		locs = []models.DocumentLocation{}
	}

	return &models.SelectedTextAggregate{
		SelectedText: st,
		Definitions:  set.Definitions,
		Links:        set.Links,
		Notes:        set.Notes,
		Synonyms:     set.Synonyms,
		Locations:    locs,
	}, nil
}
