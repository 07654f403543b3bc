package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marginalia/internal/config"
	"marginalia/internal/domain"
	"marginalia/internal/domain/models"
)

func textDoc(content string) *models.Document {
	return &models.Document{
		ID:          "doc-1",
		ContentType: models.ContentTypeText,
		Content:     &content,
	}
}

func TestTextExtractFormFeeds(t *testing.T) {
	e := &TextExtractor{}

	result, err := e.Extract(context.Background(), textDoc("page1\fpage2\fpage3"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if result.Text != "page1\npage2\npage3" {
		t.Errorf("unexpected text: %q", result.Text)
	}
	want := []int64{0, 6, 12}
	if len(result.PageBoundaries) != len(want) {
		t.Fatalf("expected boundaries %v, got %v", want, result.PageBoundaries)
	}
	for i := range want {
		if result.PageBoundaries[i] != want[i] {
			t.Errorf("boundary %d: expected %d, got %d", i, want[i], result.PageBoundaries[i])
		}
	}
}

func TestTextExtractRuneOffsets(t *testing.T) {
	e := &TextExtractor{}

	// Multibyte characters count as one unit each.
	result, err := e.Extract(context.Background(), textDoc("héllo\fwörld"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(result.PageBoundaries) != 2 || result.PageBoundaries[1] != 6 {
		t.Errorf("expected second page at rune 6, got %v", result.PageBoundaries)
	}
	runes := []rune(result.Text)
	if string(runes[6:]) != "wörld" {
		t.Errorf("second page text wrong: %q", string(runes[6:]))
	}
}

func TestTextExtractTrailingFormFeed(t *testing.T) {
	e := &TextExtractor{}

	// A trailing separator produces an empty segment whose boundary would
	// sit at the end of the text; it is dropped.
	result, err := e.Extract(context.Background(), textDoc("a\f"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(result.PageBoundaries) != 1 || result.PageBoundaries[0] != 0 {
		t.Errorf("expected single page, got %v", result.PageBoundaries)
	}
}

func TestTextExtractFixedPagination(t *testing.T) {
	e := &TextExtractor{}

	content := strings.Repeat("x", config.TextPageSize*2+100)
	result, err := e.Extract(context.Background(), textDoc(content))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	want := []int64{0, int64(config.TextPageSize), int64(config.TextPageSize * 2)}
	if len(result.PageBoundaries) != len(want) {
		t.Fatalf("expected %d pages, got %v", len(want), result.PageBoundaries)
	}
	for i := range want {
		if result.PageBoundaries[i] != want[i] {
			t.Errorf("boundary %d: expected %d, got %d", i, want[i], result.PageBoundaries[i])
		}
	}
	if len(result.Markers) != 0 {
		t.Errorf("plain text carries no markers, got %v", result.Markers)
	}
}

func TestTextExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.txt")
	if err := os.WriteFile(path, []byte("file contents"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	e := &TextExtractor{}
	result, err := e.Extract(context.Background(), &models.Document{
		ID:          "doc-1",
		ContentType: models.ContentTypeText,
		FilePath:    &path,
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Text != "file contents" {
		t.Errorf("unexpected text: %q", result.Text)
	}
}

func TestTextExtractNoSource(t *testing.T) {
	e := &TextExtractor{}

	_, err := e.Extract(context.Background(), &models.Document{ID: "doc-1", ContentType: models.ContentTypeText})
	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(nil)

	for _, ct := range []string{models.ContentTypeText, models.ContentTypePDF, models.ContentTypeWebpage} {
		if _, err := r.For(ct); err != nil {
			t.Errorf("For(%s): %v", ct, err)
		}
	}
	if _, err := r.For("epub"); err == nil {
		t.Error("unknown content type should fail")
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		textLen, pageSize int
		want              []int64
	}{
		{0, 10, []int64{0}},
		{5, 10, []int64{0}},
		{10, 10, []int64{0}},
		{11, 10, []int64{0, 10}},
		{25, 10, []int64{0, 10, 20}},
	}
	for _, tt := range tests {
		got := paginate(tt.textLen, tt.pageSize)
		if len(got) != len(tt.want) {
			t.Errorf("paginate(%d,%d): expected %v, got %v", tt.textLen, tt.pageSize, tt.want, got)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("paginate(%d,%d)[%d]: expected %d, got %d", tt.textLen, tt.pageSize, i, tt.want[i], got[i])
			}
		}
	}
}
