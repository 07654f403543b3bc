package models

import "time"

// DefaultTextType classifies selections that carry no explicit type.
// text_type has no enumerated domain; it is a free-form classifier.
const DefaultTextType = "general"

// SelectedText is a canonical, document-independent piece of text content.
// Text is globally unique by exact string match: the same phrase selected
// in two documents resolves to one shared entity. Occurrences live in
// DocumentLocation rows; StartPosition/EndPosition are the legacy
// single-document fields kept for older clients.
type SelectedText struct {
	ID            string    `json:"id" db:"id"`
	Text          string    `json:"text" db:"text"`
	TextType      string    `json:"text_type" db:"text_type"`
	StartPosition *int      `json:"start_position,omitempty" db:"start_position"`
	EndPosition   *int      `json:"end_position,omitempty" db:"end_position"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// DocumentLocation binds a SelectedText to one occurrence inside one
// document as a half-open rune interval [StartPosition, EndPosition).
// For a given document no two location intervals may overlap, regardless
// of which selected text they belong to.
type DocumentLocation struct {
	ID             string    `json:"id" db:"id"`
	DocumentID     string    `json:"document_id" db:"document_id"`
	SelectedTextID string    `json:"selected_text_id" db:"selected_text_id"`
	StartPosition  int       `json:"start_position" db:"start_position"`
	EndPosition    int       `json:"end_position" db:"end_position"`
	PageNumber     *int      `json:"page_number,omitempty" db:"page_number"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Overlaps reports whether the location intersects [start, end) under the
// half-open interval test.
func (l *DocumentLocation) Overlaps(start, end int) bool {
	return start < l.EndPosition && l.StartPosition < end
}

// SelectedTextAggregate composes everything attached to one canonical
// phrase: the cross-document picture rendered in the reader's detail pane.
type SelectedTextAggregate struct {
	SelectedText *SelectedText      `json:"selected_text"`
	Definitions  []Definition       `json:"definitions"`
	Links        []Link             `json:"links"`
	Notes        []Note             `json:"notes"`
	Synonyms     []Synonym          `json:"synonyms"`
	Locations    []DocumentLocation `json:"locations"`
}
