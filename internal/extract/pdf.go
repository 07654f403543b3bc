package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
)

// PDFExtractor handles PDF sources. Each PDF page becomes one reader
// page; bookmarks become structural markers.
type PDFExtractor struct{}

func (e *PDFExtractor) Extract(ctx context.Context, doc *models.Document) (*models.ExtractionResult, error) {
	path, cleanup, err := pdfPath(doc)
	if err != nil {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypePDF, Err: err}
	}
	if cleanup != nil {
		defer cleanup()
	}

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypePDF, Err: fmt.Errorf("open pdf: %w", err)}
	}
	defer f.Close()

	var b strings.Builder
	runeLen := int64(0)
	boundaries := make([]int64, 0, reader.NumPage())

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages that fail text extraction are skipped rather than
			// failing the whole document.
			continue
		}
		if runeLen > 0 {
			b.WriteByte('\n')
			runeLen++
		}
		boundaries = append(boundaries, runeLen)
		b.WriteString(text)
		runeLen += int64(len([]rune(text)))
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypePDF, Err: fmt.Errorf("no extractable text")}
	}

	return &models.ExtractionResult{
		Text:           text,
		PageBoundaries: normalizeBoundaries(boundaries, int(runeLen)),
		Markers:        flattenBookmarks(reader.Outline().Child, 1),
	}, nil
}

// pdfPath returns a readable path for the document's PDF bytes. Inline
// content is spilled to a temp file because the pdf library needs a
// seekable file of known size.
func pdfPath(doc *models.Document) (string, func(), error) {
	if doc.FilePath != nil && *doc.FilePath != "" {
		return *doc.FilePath, nil, nil
	}
	if doc.Content != nil && *doc.Content != "" {
		tmp, err := os.CreateTemp("", "marginalia-pdf-*.pdf")
		if err != nil {
			return "", nil, fmt.Errorf("create temp file: %w", err)
		}
		path := tmp.Name()
		if _, err := tmp.WriteString(*doc.Content); err != nil {
			tmp.Close()
			os.Remove(path)
			return "", nil, fmt.Errorf("write temp file: %w", err)
		}
		tmp.Close()
		return path, func() { os.Remove(path) }, nil
	}
	return "", nil, fmt.Errorf("document has neither file path nor content")
}

// flattenBookmarks turns the PDF bookmark tree into ordered structural
// markers. Bookmark destinations are not resolved to text offsets; the
// nesting itself carries the structure.
func flattenBookmarks(items []pdflib.Outline, level int) []models.StructuralMarker {
	var markers []models.StructuralMarker
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title != "" {
			markers = append(markers, models.StructuralMarker{
				Title: title,
				Level: level,
			})
		}
		markers = append(markers, flattenBookmarks(item.Child, level+1)...)
	}
	return markers
}
