// Package annotation manages the four annotation kinds attached to
// selected texts: definitions, links, notes and synonyms.
package annotation

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"marginalia/internal/config"
	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
)

// Fields carries the writable payload of any annotation kind. Which
// fields are required depends on the kind; unset pointers mean "leave
// unchanged" on update.
type Fields struct {
	Content     *string `json:"content"`
	Context     *string `json:"context"`
	URL         *string `json:"url"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	SynonymText *string `json:"synonym_text"`
}

// Store provides CRUD over the four annotation kinds, parameterized by
// kind, with per-kind validation rules.
type Store struct {
	annotations repositories.AnnotationRepository
	texts       repositories.SelectedTextRepository
	logger      *slog.Logger
}

// NewStore creates an annotation store.
func NewStore(
	annotations repositories.AnnotationRepository,
	texts repositories.SelectedTextRepository,
	logger *slog.Logger,
) *Store {
	return &Store{
		annotations: annotations,
		texts:       texts,
		logger:      logger,
	}
}

// Create validates the required fields for the kind and attaches a new
// annotation to the selected text. Creating a synonym extends
// AllSynonymsOf for the entity; it never creates a new SelectedText,
// even when the synonym text matches another entity's canonical text.
func (s *Store) Create(ctx context.Context, selectedTextID string, kind models.AnnotationKind, f Fields) (models.Annotation, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown annotation kind %q: %w", kind, domain.ErrValidation)
	}
	if _, err := s.texts.GetByID(ctx, selectedTextID); err != nil {
		return nil, err
	}

	a := newRecord(kind, selectedTextID)
	apply(a, f)
	if err := validateRecord(a); err != nil {
		return nil, err
	}

	if err := s.annotations.Create(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Info("annotation created", "kind", kind, "selected_text_id", selectedTextID)
	return a, nil
}

// Update applies the set fields to an existing annotation after
// re-validating the result. Fails with NotFound when the id/kind pair
// does not exist.
func (s *Store) Update(ctx context.Context, kind models.AnnotationKind, id string, f Fields) (models.Annotation, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown annotation kind %q: %w", kind, domain.ErrValidation)
	}

	a, err := s.annotations.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	apply(a, f)
	if err := validateRecord(a); err != nil {
		return nil, err
	}

	if err := s.annotations.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an annotation. Fails with NotFound when the id/kind
// pair does not exist.
func (s *Store) Delete(ctx context.Context, kind models.AnnotationKind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown annotation kind %q: %w", kind, domain.ErrValidation)
	}
	return s.annotations.Delete(ctx, kind, id)
}

func newRecord(kind models.AnnotationKind, selectedTextID string) models.Annotation {
	switch kind {
	case models.KindDefinition:
		return &models.Definition{SelectedTextID: selectedTextID}
	case models.KindLink:
		return &models.Link{SelectedTextID: selectedTextID}
	case models.KindNote:
		return &models.Note{SelectedTextID: selectedTextID}
	default:
		return &models.Synonym{SelectedTextID: selectedTextID}
	}
}

func apply(a models.Annotation, f Fields) {
	switch v := a.(type) {
	case *models.Definition:
		if f.Content != nil {
			v.Content = *f.Content
		}
		if f.Context != nil {
			v.Context = *f.Context
		}
	case *models.Link:
		if f.URL != nil {
			v.URL = *f.URL
		}
		if f.Title != nil {
			v.Title = *f.Title
		}
		if f.Description != nil {
			v.Description = f.Description
		}
	case *models.Note:
		if f.Content != nil {
			v.Content = *f.Content
		}
	case *models.Synonym:
		if f.SynonymText != nil {
			v.SynonymText = *f.SynonymText
		}
	}
}

func validateRecord(a models.Annotation) error {
	var errs validation.Errors
	switch v := a.(type) {
	case *models.Definition:
		errs = validation.Errors{
			"content": validation.Validate(v.Content, validation.Required),
			"context": validation.Validate(v.Context, validation.Required),
		}
	case *models.Link:
		errs = validation.Errors{
			"url": validation.Validate(v.URL,
				validation.Required,
				validation.Length(1, config.MaxURLLength),
				is.URL,
			),
			"title": validation.Validate(v.Title,
				validation.Required,
				validation.Length(1, config.MaxLinkTitleLength),
			),
		}
	case *models.Note:
		errs = validation.Errors{
			"content": validation.Validate(v.Content, validation.Required),
		}
	case *models.Synonym:
		errs = validation.Errors{
			"synonym_text": validation.Validate(v.SynonymText, validation.Required),
		}
	}

	return toValidationError(a.Kind(), errs)
}

// toValidationError converts non-empty ozzo errors into the domain
// validation error carrying the offending field list.
func toValidationError(kind models.AnnotationKind, errs validation.Errors) error {
	fields := make(map[string]string)
	for name, err := range errs {
		if err != nil {
			fields[name] = err.Error()
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &domain.ValidationError{
		Message: fmt.Sprintf("invalid %s", kind),
		Fields:  fields,
	}
}
