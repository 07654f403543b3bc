package models

import (
	"time"
)

// Content types a document can carry. Extraction behavior is selected by
// this value.
const (
	ContentTypeText    = "text"
	ContentTypePDF     = "pdf"
	ContentTypeWebpage = "webpage"
)

// ContentTypes lists every accepted document content type.
var ContentTypes = []interface{}{ContentTypeText, ContentTypePDF, ContentTypeWebpage}

// Document is an uploaded or referenced source a reader pages through.
// Raw source material lives in Content/FilePath/URL; ExtractedText and
// PageBoundaries are populated by ingest and drive all span arithmetic.
// Offsets are rune offsets into ExtractedText.
type Document struct {
	ID          string  `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	ContentType string  `json:"content_type" db:"content_type"`
	FilePath    *string `json:"file_path,omitempty" db:"file_path"`
	URL         *string `json:"url,omitempty" db:"url"`
	Content     *string `json:"content,omitempty" db:"content"`

	// Populated by ingest. Extracted stays false until a successful
	// extraction commits, which is what "unprocessed" means.
	ExtractedText  *string `json:"-" db:"extracted_text"`
	PageBoundaries []int64 `json:"page_boundaries,omitempty" db:"page_boundaries"`
	Extracted      bool    `json:"extracted" db:"extracted"`

	TotalPages  int `json:"total_pages" db:"total_pages"`
	CurrentPage int `json:"current_page" db:"current_page"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TextLength returns the rune length of the extracted text, 0 when the
// document is unprocessed.
func (d *Document) TextLength() int {
	if d.ExtractedText == nil {
		return 0
	}
	return len([]rune(*d.ExtractedText))
}

// ClampCurrentPage forces CurrentPage into [1, TotalPages].
func (d *Document) ClampCurrentPage() {
	if d.CurrentPage < 1 {
		d.CurrentPage = 1
	}
	if d.TotalPages >= 1 && d.CurrentPage > d.TotalPages {
		d.CurrentPage = d.TotalPages
	}
}
