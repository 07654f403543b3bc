package models

// StructuralMarker is a heading or bookmark discovered during extraction.
// Level is the raw structural level as reported by the source (heading
// rank, bookmark nesting); Offset is the rune offset of the marker in the
// extracted text.
type StructuralMarker struct {
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Offset int    `json:"offset"`
}

// ExtractionResult is the contract of the content extraction collaborator:
// plain text plus page and structure metadata. PageBoundaries is an
// ordered sequence of rune offsets marking page starts; the first entry is
// always 0 for non-empty text.
type ExtractionResult struct {
	Text           string             `json:"text"`
	PageBoundaries []int64            `json:"page_boundaries"`
	Markers        []StructuralMarker `json:"structural_markers"`
}
