package annotation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
)

type fakeAnnotationRepo struct {
	seq     int
	records map[string]models.Annotation
}

func newFakeAnnotationRepo() *fakeAnnotationRepo {
	return &fakeAnnotationRepo{records: make(map[string]models.Annotation)}
}

func key(kind models.AnnotationKind, id string) string { return string(kind) + "/" + id }

func (f *fakeAnnotationRepo) Create(ctx context.Context, a models.Annotation) error {
	f.seq++
	id := fmt.Sprintf("a-%d", f.seq)
	switch v := a.(type) {
	case *models.Definition:
		v.ID = id
	case *models.Link:
		v.ID = id
	case *models.Note:
		v.ID = id
	case *models.Synonym:
		v.ID = id
	}
	f.records[key(a.Kind(), id)] = a
	return nil
}

func (f *fakeAnnotationRepo) Get(ctx context.Context, kind models.AnnotationKind, id string) (models.Annotation, error) {
	a, ok := f.records[key(kind, id)]
	if !ok {
		return nil, &domain.NotFoundError{Message: string(kind) + " " + id + " not found"}
	}
	return a, nil
}

func (f *fakeAnnotationRepo) Update(ctx context.Context, a models.Annotation) error {
	return nil
}

func (f *fakeAnnotationRepo) Delete(ctx context.Context, kind models.AnnotationKind, id string) error {
	if _, ok := f.records[key(kind, id)]; !ok {
		return &domain.NotFoundError{Message: string(kind) + " " + id + " not found"}
	}
	delete(f.records, key(kind, id))
	return nil
}

func (f *fakeAnnotationRepo) ListBySelectedText(ctx context.Context, selectedTextID string) (*models.AnnotationSet, error) {
	set := &models.AnnotationSet{
		Definitions: []models.Definition{},
		Links:       []models.Link{},
		Notes:       []models.Note{},
		Synonyms:    []models.Synonym{},
	}
	for _, a := range f.records {
		switch v := a.(type) {
		case *models.Definition:
			if v.SelectedTextID == selectedTextID {
				set.Definitions = append(set.Definitions, *v)
			}
		case *models.Link:
			if v.SelectedTextID == selectedTextID {
				set.Links = append(set.Links, *v)
			}
		case *models.Note:
			if v.SelectedTextID == selectedTextID {
				set.Notes = append(set.Notes, *v)
			}
		case *models.Synonym:
			if v.SelectedTextID == selectedTextID {
				set.Synonyms = append(set.Synonyms, *v)
			}
		}
	}
	return set, nil
}

type fakeTextRepo struct {
	ids map[string]bool
}

func (f *fakeTextRepo) Create(ctx context.Context, st *models.SelectedText) error { return nil }
func (f *fakeTextRepo) GetByID(ctx context.Context, id string) (*models.SelectedText, error) {
	if !f.ids[id] {
		return nil, &domain.NotFoundError{Message: "selected text " + id + " not found"}
	}
	return &models.SelectedText{ID: id, Text: "phrase"}, nil
}
func (f *fakeTextRepo) GetByText(ctx context.Context, text string) (*models.SelectedText, error) {
	return nil, &domain.NotFoundError{Message: "not found"}
}
func (f *fakeTextRepo) Update(ctx context.Context, st *models.SelectedText) error { return nil }
func (f *fakeTextRepo) Delete(ctx context.Context, id string) error               { return nil }

func strPtr(s string) *string { return &s }

func newTestStore() (*Store, *fakeAnnotationRepo) {
	annotations := newFakeAnnotationRepo()
	texts := &fakeTextRepo{ids: map[string]bool{"st-1": true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(annotations, texts, logger), annotations
}

func TestCreateValidAnnotations(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	tests := []struct {
		kind   models.AnnotationKind
		fields Fields
	}{
		{models.KindDefinition, Fields{Content: strPtr("a small human"), Context: strPtr("fantasy")}},
		{models.KindLink, Fields{URL: strPtr("https://example.com/wiki"), Title: strPtr("Wiki entry")}},
		{models.KindNote, Fields{Content: strPtr("recurring theme")}},
		{models.KindSynonym, Fields{SynonymText: strPtr("halfling")}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			a, err := store.Create(ctx, "st-1", tt.kind, tt.fields)
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if a.Kind() != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, a.Kind())
			}
		})
	}
}

func TestCreateMissingRequiredFields(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	tests := []struct {
		name      string
		kind      models.AnnotationKind
		fields    Fields
		wantField string
	}{
		{"definition without content", models.KindDefinition, Fields{Context: strPtr("ctx")}, "content"},
		{"definition without context", models.KindDefinition, Fields{Content: strPtr("text")}, "context"},
		{"link without url", models.KindLink, Fields{Title: strPtr("t")}, "url"},
		{"link without title", models.KindLink, Fields{URL: strPtr("https://example.com")}, "title"},
		{"link with malformed url", models.KindLink, Fields{URL: strPtr("::not a url::"), Title: strPtr("t")}, "url"},
		{"note without content", models.KindNote, Fields{}, "content"},
		{"synonym without text", models.KindSynonym, Fields{}, "synonym_text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, "st-1", tt.kind, tt.fields)
			var validationErr *domain.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := validationErr.Fields[tt.wantField]; !ok {
				t.Errorf("expected field %q in %v", tt.wantField, validationErr.Fields)
			}
		})
	}
}

func TestCreateUnknownKindAndTarget(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "st-1", "bookmark", Fields{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown kind should fail validation, got %v", err)
	}
	fields := Fields{Content: strPtr("x")}
	if _, err := store.Create(ctx, "st-missing", models.KindNote, fields); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown selected text should fail not found, got %v", err)
	}
}

func TestUpdateAnnotation(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "st-1", models.KindLink, Fields{
		URL:   strPtr("https://example.com"),
		Title: strPtr("Original"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	link := created.(*models.Link)

	updated, err := store.Update(ctx, models.KindLink, link.ID, Fields{Title: strPtr("Renamed")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got := updated.(*models.Link)
	if got.Title != "Renamed" {
		t.Errorf("expected renamed title, got %q", got.Title)
	}
	if got.URL != "https://example.com" {
		t.Errorf("unset field must stay unchanged, got %q", got.URL)
	}

	// Clearing a required field is rejected.
	if _, err := store.Update(ctx, models.KindLink, link.ID, Fields{URL: strPtr("")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank url should fail validation, got %v", err)
	}
	if _, err := store.Update(ctx, models.KindLink, "a-missing", Fields{}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown id should fail not found, got %v", err)
	}
}

func TestDeleteAnnotation(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "st-1", models.KindNote, Fields{Content: strPtr("x")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	note := created.(*models.Note)

	if err := store.Delete(ctx, models.KindNote, note.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, models.KindNote, note.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete should fail not found, got %v", err)
	}
	// Kind and id must match together.
	if err := store.Delete(ctx, models.KindDefinition, note.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("mismatched kind should fail not found, got %v", err)
	}
}

func TestSynonymNeverCreatesSelectedText(t *testing.T) {
	annotations := newFakeAnnotationRepo()
	texts := &fakeTextRepo{ids: map[string]bool{"st-1": true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(annotations, texts, logger)

	// "halfling" might be another entity's canonical text; registering it
	// as a synonym only writes a synonym row.
	_, err := store.Create(context.Background(), "st-1", models.KindSynonym, Fields{SynonymText: strPtr("halfling")})
	if err != nil {
		t.Fatalf("create synonym: %v", err)
	}

	set, err := annotations.ListBySelectedText(context.Background(), "st-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(set.Synonyms) != 1 || set.Synonyms[0].SynonymText != "halfling" {
		t.Errorf("expected one synonym row, got %+v", set.Synonyms)
	}
}
