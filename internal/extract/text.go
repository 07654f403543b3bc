package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"marginalia/internal/config"
	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
)

// TextExtractor handles plain text sources. Form feeds mark page breaks;
// sources without them are paginated into fixed-size pages. Plain text
// carries no structural markers.
type TextExtractor struct{}

func (e *TextExtractor) Extract(ctx context.Context, doc *models.Document) (*models.ExtractionResult, error) {
	content, err := textSource(doc)
	if err != nil {
		return nil, &domain.ExtractionError{ContentType: models.ContentTypeText, Err: err}
	}

	if strings.ContainsRune(content, '\f') {
		text, boundaries := splitFormFeeds(content)
		return &models.ExtractionResult{
			Text:           text,
			PageBoundaries: boundaries,
			Markers:        nil,
		}, nil
	}

	return &models.ExtractionResult{
		Text:           content,
		PageBoundaries: paginate(len([]rune(content)), config.TextPageSize),
		Markers:        nil,
	}, nil
}

// textSource prefers inline content and falls back to the referenced
// file.
func textSource(doc *models.Document) (string, error) {
	if doc.Content != nil && *doc.Content != "" {
		return *doc.Content, nil
	}
	if doc.FilePath != nil && *doc.FilePath != "" {
		data, err := os.ReadFile(*doc.FilePath)
		if err != nil {
			return "", fmt.Errorf("read source file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("document has neither content nor file path")
}

// splitFormFeeds removes form feed separators, replacing each with a
// newline, and records the rune offset where every page starts.
func splitFormFeeds(content string) (string, []int64) {
	segments := strings.Split(content, "\f")
	var b strings.Builder
	boundaries := make([]int64, 0, len(segments))
	runeLen := int64(0)

	for i, segment := range segments {
		if i > 0 {
			b.WriteByte('\n')
			runeLen++
		}
		boundaries = append(boundaries, runeLen)
		b.WriteString(segment)
		runeLen += int64(len([]rune(segment)))
	}

	return b.String(), normalizeBoundaries(boundaries, int(runeLen))
}
