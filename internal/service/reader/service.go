// Package reader orchestrates the document lifecycle: creation, source
// extraction, pagination and text selection. It is the composition point
// where the span index, the selected-text registry and the outline tree
// meet a concrete document.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"marginalia/internal/config"
	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
	"marginalia/internal/domain/repositories"
	"marginalia/internal/extract"
	"marginalia/internal/service/outline"
	"marginalia/internal/service/registry"
	"marginalia/internal/service/spanindex"
)

// ingestTimeout bounds the background extraction of a single document.
const ingestTimeout = 2 * time.Minute

// Service implements the document operations.
type Service struct {
	documents repositories.DocumentRepository
	outlines  repositories.OutlineRepository
	locations repositories.LocationRepository
	txManager repositories.TransactionManager

	spans      *spanindex.Index
	texts      *registry.Registry
	trees      *outline.Service
	extractors *extract.Registry

	logger *slog.Logger
}

// NewService creates a document service.
func NewService(
	documents repositories.DocumentRepository,
	outlines repositories.OutlineRepository,
	locations repositories.LocationRepository,
	txManager repositories.TransactionManager,
	spans *spanindex.Index,
	texts *registry.Registry,
	trees *outline.Service,
	extractors *extract.Registry,
	logger *slog.Logger,
) *Service {
	return &Service{
		documents:  documents,
		outlines:   outlines,
		locations:  locations,
		txManager:  txManager,
		spans:      spans,
		texts:      texts,
		trees:      trees,
		extractors: extractors,
		logger:     logger,
	}
}

// CreateDocumentInput carries the writable fields of a new document.
type CreateDocumentInput struct {
	Title       string  `json:"title"`
	ContentType string  `json:"content_type"`
	Content     *string `json:"content,omitempty"`
	FilePath    *string `json:"file_path,omitempty"`
	URL         *string `json:"url,omitempty"`
}

func (in CreateDocumentInput) validate() error {
	errs := validation.Errors{
		"title": validation.Validate(in.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		),
		"content_type": validation.Validate(in.ContentType,
			validation.Required,
			validation.In(models.ContentTypes...),
		),
	}
	if !hasSource(in) {
		errs["content"] = fmt.Errorf("one of content, file_path or url is required")
	}

	fields := make(map[string]string)
	for name, err := range errs {
		if err != nil {
			fields[name] = err.Error()
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &domain.ValidationError{Message: "invalid document", Fields: fields}
}

func hasSource(in CreateDocumentInput) bool {
	set := func(p *string) bool { return p != nil && *p != "" }
	return set(in.Content) || set(in.FilePath) || set(in.URL)
}

// CreateDocument persists a new document and kicks off extraction in the
// background. The response does not wait for extraction; the document
// stays unprocessed until ingest commits.
func (s *Service) CreateDocument(ctx context.Context, in CreateDocumentInput) (*models.Document, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	doc := &models.Document{
		Title:       in.Title,
		ContentType: in.ContentType,
		Content:     in.Content,
		FilePath:    in.FilePath,
		URL:         in.URL,
		TotalPages:  1,
		CurrentPage: 1,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info("document created", "id", doc.ID, "content_type", doc.ContentType)

	go func(id string) {
		ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
		defer cancel()
		if err := s.Ingest(ctx, id); err != nil {
			s.logger.Error("ingest failed", "document_id", id, "error", err)
		}
	}(doc.ID)

	return doc, nil
}

// Ingest extracts the document's source and commits text, page map and
// outline in a single transaction. On any failure nothing is committed
// and the document remains unprocessed, so ingest can be retried.
func (s *Service) Ingest(ctx context.Context, documentID string) error {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	extractor, err := s.extractors.For(doc.ContentType)
	if err != nil {
		return err
	}
	result, err := extractor.Extract(ctx, doc)
	if err != nil {
		return err
	}

	doc.ExtractedText = &result.Text
	doc.PageBoundaries = result.PageBoundaries
	doc.TotalPages = len(result.PageBoundaries)
	doc.Extracted = true
	doc.ClampCurrentPage()

	rows := s.outlineRows(doc, result.Markers)

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.outlines.DeleteByDocument(ctx, documentID); err != nil {
			return err
		}
		if err := s.outlines.CreateBatch(ctx, rows); err != nil {
			return err
		}
		return s.documents.MarkExtracted(ctx, doc)
	})
	if err != nil {
		return fmt.Errorf("commit ingest: %w", err)
	}

	s.logger.Info("document ingested",
		"id", doc.ID,
		"total_pages", doc.TotalPages,
		"outline_nodes", len(rows),
	)
	return nil
}

// outlineRows converts structural markers into outline rows. A marker's
// parent is the nearest preceding marker with a shallower source level;
// the stored level is the structural depth derived from that nesting, so
// skipped heading ranks in the source collapse cleanly. Ids are assigned
// here so parent links exist before insertion.
func (s *Service) outlineRows(doc *models.Document, markers []models.StructuralMarker) []*models.DocumentOutline {
	type frame struct {
		sourceLevel int
		id          string
	}
	var stack []frame
	positions := make(map[string]int)
	rows := make([]*models.DocumentOutline, 0, len(markers))

	for _, m := range markers {
		for len(stack) > 0 && stack[len(stack)-1].sourceLevel >= m.Level {
			stack = stack[:len(stack)-1]
		}

		row := &models.DocumentOutline{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Title:      m.Title,
			Level:      len(stack) + 1,
		}
		parentKey := ""
		if len(stack) > 0 {
			parent := stack[len(stack)-1].id
			row.ParentID = &parent
			parentKey = parent
		}
		row.Position = positions[parentKey]
		positions[parentKey]++

		if page, err := s.pageFor(doc, int(m.Offset)); err == nil {
			row.PageNumber = &page
		}
		anchor := uuid.NewString()
		row.AnchorID = &anchor

		rows = append(rows, row)
		stack = append(stack, frame{sourceLevel: m.Level, id: row.ID})
	}
	return rows
}

// SelectionResult is what selecting a span yields: the canonical entity
// for the selected phrase and the committed location row.
type SelectionResult struct {
	SelectedText *models.SelectedText     `json:"selected_text"`
	Location     *models.DocumentLocation `json:"location"`
}

// SelectText claims the span [start, end) of a document's extracted text
// and binds it to the canonical selected-text entity for the covered
// substring. Overlapping an existing span fails with OverlapError and
// leaves the registry untouched; a span past the end of the text fails
// with OutOfRange.
func (s *Service) SelectText(ctx context.Context, documentID string, start, end int, textType string) (*SelectionResult, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if !doc.Extracted {
		return nil, &domain.ValidationError{
			Message: "document has not been processed yet",
			Fields:  map[string]string{"document": "extraction pending"},
		}
	}

	textLen := doc.TextLength()
	if start < 0 || end <= start {
		return nil, &domain.ValidationError{
			Message: "invalid span",
			Fields:  map[string]string{"start_position": fmt.Sprintf("must satisfy 0 <= %d < %d", start, end)},
		}
	}
	if end > textLen {
		return nil, &domain.OutOfRangeError{DocumentID: documentID, Offset: end, Length: textLen}
	}
	if end-start > config.MaxSelectionLength {
		return nil, &domain.ValidationError{
			Message: "selection too long",
			Fields:  map[string]string{"end_position": fmt.Sprintf("selection exceeds %d characters", config.MaxSelectionLength)},
		}
	}

	text := string([]rune(*doc.ExtractedText)[start:end])
	page, err := s.pageFor(doc, start)
	if err != nil {
		return nil, err
	}

	var selected *models.SelectedText
	loc, err := s.spans.Reserve(ctx, documentID, start, end, &page, func(ctx context.Context) (string, error) {
		st, err := s.texts.Resolve(ctx, text, textType)
		if err != nil {
			return "", err
		}
		selected = st
		return st.ID, nil
	})
	if err != nil {
		return nil, err
	}

	return &SelectionResult{SelectedText: selected, Location: loc}, nil
}

// PageFor maps a character offset of a document to its 1-based page
// number. Offsets at or past the end of the text are out of range.
func (s *Service) PageFor(ctx context.Context, documentID string, offset int) (int, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return 0, err
	}
	return s.pageFor(doc, offset)
}

func (s *Service) pageFor(doc *models.Document, offset int) (int, error) {
	textLen := doc.TextLength()
	if offset < 0 || offset >= textLen {
		return 0, &domain.OutOfRangeError{DocumentID: doc.ID, Offset: offset, Length: textLen}
	}

	b := doc.PageBoundaries
	// First boundary past the offset; the offset's page is the one before.
	i := sort.Search(len(b), func(i int) bool {
		return b[i] > int64(offset)
	})
	return i, nil
}

// PageText returns the extracted text of one 1-based page.
func (s *Service) PageText(ctx context.Context, documentID string, page int) (string, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if !doc.Extracted {
		return "", &domain.OutOfRangeError{DocumentID: documentID, Offset: 0, Length: 0}
	}
	if page < 1 || page > doc.TotalPages {
		return "", &domain.OutOfRangeError{DocumentID: documentID, Offset: page, Length: doc.TotalPages}
	}

	runes := []rune(*doc.ExtractedText)
	start := doc.PageBoundaries[page-1]
	end := int64(len(runes))
	if page < len(doc.PageBoundaries) {
		end = doc.PageBoundaries[page]
	}
	return string(runes[start:end]), nil
}

// DocumentView is the full reader payload for one document: the row, its
// outline tree and every annotated span.
type DocumentView struct {
	Document  *models.Document          `json:"document"`
	Outline   []*models.OutlineNode     `json:"outline"`
	Locations []models.DocumentLocation `json:"locations"`
}

// GetDocument retrieves a single document row.
func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.documents.GetByID(ctx, id)
}

// GetDocumentView composes the document with its outline tree and its
// committed span locations.
func (s *Service) GetDocumentView(ctx context.Context, id string) (*DocumentView, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	forest, err := s.trees.Build(ctx, id)
	if err != nil {
		return nil, err
	}
	locs, err := s.locations.ListByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if locs == nil {
		locs = []models.DocumentLocation{}
	}
	return &DocumentView{Document: doc, Outline: forest, Locations: locs}, nil
}

// ListDocuments returns all documents, newest first.
func (s *Service) ListDocuments(ctx context.Context) ([]models.Document, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

// UpdateDocumentInput carries the patchable document fields. Nil means
// leave unchanged.
type UpdateDocumentInput struct {
	Title       *string `json:"title,omitempty"`
	CurrentPage *int    `json:"current_page,omitempty"`
}

// UpdateDocument patches title and reading position. The current page is
// clamped into the document's page range rather than rejected.
func (s *Service) UpdateDocument(ctx context.Context, id string, in UpdateDocumentInput) (*models.Document, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if err := validation.Validate(*in.Title,
			validation.Required,
			validation.Length(1, config.MaxDocumentTitleLength),
		); err != nil {
			return nil, &domain.ValidationError{
				Message: "invalid document update",
				Fields:  map[string]string{"title": err.Error()},
			}
		}
		doc.Title = *in.Title
	}
	if in.CurrentPage != nil {
		doc.CurrentPage = *in.CurrentPage
		doc.ClampCurrentPage()
	}

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a document. Its outline rows and span locations
// go with it; selected-text entities survive because they may be
// referenced from other documents.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if err := s.documents.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("document deleted", "id", id)
	return nil
}

// OutlineLevelOf derives the structural depth of one outline node from
// its stored parent chain. Exposed for integrity checks.
func (s *Service) OutlineLevelOf(ctx context.Context, documentID, outlineID string) (int, error) {
	rows, err := s.outlines.ListByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	level, err := outline.LevelOf(rows, outlineID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, &domain.NotFoundError{Message: fmt.Sprintf("outline node %s not found", outlineID)}
		}
		return 0, err
	}
	return level, nil
}
